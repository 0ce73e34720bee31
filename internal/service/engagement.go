package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ManakRaj-7/AnonVerse/internal/data"
	"github.com/ManakRaj-7/AnonVerse/internal/domain"
	domainerrors "github.com/ManakRaj-7/AnonVerse/internal/errors"
	"github.com/ManakRaj-7/AnonVerse/internal/id"
	"github.com/ManakRaj-7/AnonVerse/internal/tier"
)

// maxCommentLength bounds a comment body.
const maxCommentLength = 2000

// CommentView is a comment paired with its author's profile.
type CommentView struct {
	Comment domain.Comment  `json:"comment"`
	Author  domain.Identity `json:"author"`
}

// EngagementService applies local-first like/unlike/comment mutations.
// Writes go through first; on success the in-memory feed is updated in place
// so the caller sees the action immediately, and the next full refresh
// reconciles with the authoritative counts. Optimistic updates are never
// rolled back.
type EngagementService struct {
	data     data.Service
	sessions *SessionStore
	feed     *FeedService
	logger   *slog.Logger

	// Comment threads are fetched lazily on first expand and cached for the
	// session; a successful post invalidates the poem's entry.
	threadsMu sync.Mutex
	threads   map[string][]CommentView
}

// NewEngagementService creates an engagement service.
func NewEngagementService(dataSvc data.Service, sessions *SessionStore, feed *FeedService, logger *slog.Logger) *EngagementService {
	return &EngagementService{
		data:     dataSvc,
		sessions: sessions,
		feed:     feed,
		logger:   logger,
		threads:  make(map[string][]CommentView),
	}
}

// Like records the viewer's like on a poem. A duplicate like reports success:
// the desired end state is already achieved. Rejected with Forbidden for
// tiers without a viewer identity, before any write is issued.
func (s *EngagementService) Like(ctx context.Context, poemID string) error {
	viewer, err := s.requireMutation(tier.ActionLike, "sign in to like poems")
	if err != nil {
		return err
	}

	likeID, err := id.Generate(id.PrefixLike)
	if err != nil {
		return fmt.Errorf("generate like ID: %w", err)
	}

	err = s.data.Insert(ctx, data.TableLikes, data.Row{
		"id":         likeID,
		"poem_id":    poemID,
		"user_id":    viewer.ID,
		"created_at": data.FormatTime(time.Now()),
	})
	if err != nil && !domainerrors.Is(err, domainerrors.ErrUniqueViolation) {
		return err
	}
	if domainerrors.Is(err, domainerrors.ErrUniqueViolation) {
		s.logger.Debug("Like already recorded", "poem_id", poemID, "user_id", viewer.ID)
	}

	s.feed.applyLike(poemID)
	return nil
}

// Unlike removes the viewer's like. Deleting a like that never existed is
// not an error; the local count floors at zero either way.
func (s *EngagementService) Unlike(ctx context.Context, poemID string) error {
	viewer, err := s.requireMutation(tier.ActionLike, "sign in to like poems")
	if err != nil {
		return err
	}

	err = s.data.Delete(ctx, data.TableLikes,
		data.Eq("poem_id", poemID),
		data.Eq("user_id", viewer.ID))
	if err != nil {
		return err
	}

	s.feed.applyUnlike(poemID)
	return nil
}

// PostComment appends a comment to a poem's thread. The poem's local comment
// count is bumped immediately; counts elsewhere in the feed converge on the
// next refresh. A successful post invalidates the cached thread so the next
// expand refetches it.
func (s *EngagementService) PostComment(ctx context.Context, poemID, text string) (*CommentView, error) {
	viewer, err := s.requireMutation(tier.ActionComment, "sign in to comment")
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domainerrors.Validation("comment cannot be empty")
	}
	if len([]rune(text)) > maxCommentLength {
		return nil, domainerrors.Validationf("comment must not exceed %d characters", maxCommentLength)
	}

	commentID, err := id.Generate(id.PrefixComment)
	if err != nil {
		return nil, fmt.Errorf("generate comment ID: %w", err)
	}

	now := time.Now()
	err = s.data.Insert(ctx, data.TableComments, data.Row{
		"id":         commentID,
		"poem_id":    poemID,
		"author_id":  viewer.ID,
		"content":    text,
		"created_at": data.FormatTime(now),
		"updated_at": data.FormatTime(now),
	})
	if err != nil {
		return nil, err
	}

	s.feed.applyComment(poemID)
	s.invalidateThread(poemID)

	return &CommentView{
		Comment: domain.Comment{
			ID:        commentID,
			PoemID:    poemID,
			AuthorID:  viewer.ID,
			Content:   text,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Author: *viewer,
	}, nil
}

// Comments returns a poem's thread, oldest first. The first expand fetches
// and caches it; later expands reuse the cache until a post invalidates it.
func (s *EngagementService) Comments(ctx context.Context, poemID string) ([]CommentView, error) {
	if !tier.Allowed(s.sessions.Tier(), tier.ActionViewComments) {
		return nil, domainerrors.Forbidden("sign in or continue as guest to read comments")
	}

	s.threadsMu.Lock()
	cached, ok := s.threads[poemID]
	s.threadsMu.Unlock()
	if ok {
		return append([]CommentView(nil), cached...), nil
	}

	rows, err := s.data.Select(ctx, data.Query{
		Table:   data.TableComments,
		Filters: []data.Filter{data.Eq("poem_id", poemID)},
		Joins: []data.Join{
			{Table: data.TableProfiles, LocalColumn: "author_id", ForeignColumn: "id", As: "author"},
		},
		Order: []data.Order{{Column: "created_at"}},
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeFetchError, "comment thread fetch failed")
	}

	thread := make([]CommentView, 0, len(rows))
	for _, row := range rows {
		view := CommentView{Comment: commentFromRow(row)}
		if author := embeddedRow(row, "author"); author != nil {
			view.Author = identityFromRow(author)
		}
		thread = append(thread, view)
	}

	s.threadsMu.Lock()
	s.threads[poemID] = thread
	s.threadsMu.Unlock()

	return append([]CommentView(nil), thread...), nil
}

func (s *EngagementService) invalidateThread(poemID string) {
	s.threadsMu.Lock()
	delete(s.threads, poemID)
	s.threadsMu.Unlock()
}

// requireMutation gates a mutating action: the viewer must be present and
// the tier must allow the action. Policy failures are reported before any
// network call is made.
func (s *EngagementService) requireMutation(action tier.Action, msg string) (*domain.Identity, error) {
	viewer := s.sessions.Viewer()
	if viewer == nil || !tier.Allowed(s.sessions.Tier(), action) {
		return nil, domainerrors.Forbidden(msg)
	}
	return viewer, nil
}
