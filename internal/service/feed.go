package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ManakRaj-7/AnonVerse/internal/data"
	"github.com/ManakRaj-7/AnonVerse/internal/domain"
	domainerrors "github.com/ManakRaj-7/AnonVerse/internal/errors"
	"github.com/ManakRaj-7/AnonVerse/internal/tier"
)

// FeedItem is one rendered feed entry: the poem, its author's profile, and
// the viewer-relative engagement aggregate.
type FeedItem struct {
	Poem       domain.Poem           `json:"poem"`
	Author     domain.Identity       `json:"author"`
	Engagement domain.EngagementView `json:"engagement"`
}

// FeedService aggregates poems, author profiles, externally computed
// like/comment counts, and the viewer's like membership into a unified feed.
//
// A fetch is two queries: poems joined to authors and grouped counts, then a
// second query for the viewer's likes among the fetched poems. The second
// query carries per-viewer state and is skipped entirely for tiers without a
// viewer identity.
type FeedService struct {
	data     data.Service
	sessions *SessionStore
	logger   *slog.Logger

	mu     sync.RWMutex
	items  []*FeedItem
	byPoem map[string]*FeedItem
}

// NewFeedService creates a feed service with an empty feed.
func NewFeedService(dataSvc data.Service, sessions *SessionStore, logger *slog.Logger) *FeedService {
	return &FeedService{
		data:     dataSvc,
		sessions: sessions,
		logger:   logger,
		byPoem:   make(map[string]*FeedItem),
	}
}

// Fetch refreshes the feed, most recent poem first. On failure it returns a
// FetchError and leaves the previously fetched feed untouched; there is no
// partial-result fallback.
func (s *FeedService) Fetch(ctx context.Context) ([]FeedItem, error) {
	if !tier.Allowed(s.sessions.Tier(), tier.ActionViewFeed) {
		return nil, domainerrors.Forbidden("sign in or continue as guest to browse the feed")
	}

	// Capture the viewer once. The membership query below must only apply to
	// the result set it was issued against; if the identity changes while we
	// are suspended, the stale membership is discarded.
	viewerAtRequest := s.sessions.Viewer()

	rows, err := s.data.Select(ctx, data.Query{
		Table: data.TablePoems,
		Joins: []data.Join{
			{Table: data.TableProfiles, LocalColumn: "author_id", ForeignColumn: "id", As: "author"},
		},
		Counts: []data.Count{
			{Table: data.TableLikes, ForeignColumn: "poem_id", As: "likes"},
			{Table: data.TableComments, ForeignColumn: "poem_id", As: "comments"},
		},
		Order: []data.Order{{Column: "created_at", Descending: true}},
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeFetchError, "feed refresh failed")
	}

	items := make([]*FeedItem, 0, len(rows))
	poemIDs := make([]any, 0, len(rows))
	for _, row := range rows {
		item := &FeedItem{
			Poem: poemFromRow(row),
			Engagement: domain.EngagementView{
				LikeCount:    s.normalizeCount(row["likes"]),
				CommentCount: s.normalizeCount(row["comments"]),
			},
		}
		if author := embeddedRow(row, "author"); author != nil {
			item.Author = identityFromRow(author)
		}
		items = append(items, item)
		poemIDs = append(poemIDs, item.Poem.ID)
	}

	if viewerAtRequest != nil && len(poemIDs) > 0 {
		liked, err := s.likedSet(ctx, viewerAtRequest.ID, poemIDs)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeFetchError, "feed refresh failed")
		}

		// The membership set is viewer-specific and must never be applied
		// across identities.
		current := s.sessions.Viewer()
		switch {
		case current == nil || current.ID != viewerAtRequest.ID:
			s.logger.Debug("Viewer changed during feed fetch, discarding like membership",
				"requested_for", viewerAtRequest.ID)
		default:
			for _, item := range items {
				item.Engagement.ViewerHasLiked = liked[item.Poem.ID]
			}
		}
	}

	s.mu.Lock()
	s.items = items
	s.byPoem = make(map[string]*FeedItem, len(items))
	for _, item := range items {
		s.byPoem[item.Poem.ID] = item
	}
	s.mu.Unlock()

	return s.Items(), nil
}

// Items returns a snapshot of the last successfully fetched feed.
func (s *FeedService) Items() []FeedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]FeedItem, len(s.items))
	for i, item := range s.items {
		snapshot[i] = *item
	}
	return snapshot
}

// Item returns a snapshot of a single feed entry.
func (s *FeedService) Item(poemID string) (FeedItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.byPoem[poemID]
	if !ok {
		return FeedItem{}, false
	}
	return *item, true
}

// likedSet returns the poem IDs the viewer has liked among the given set.
func (s *FeedService) likedSet(ctx context.Context, viewerID string, poemIDs []any) (map[string]bool, error) {
	rows, err := s.data.Select(ctx, data.Query{
		Table: data.TableLikes,
		Filters: []data.Filter{
			data.Eq("user_id", viewerID),
			data.In("poem_id", poemIDs...),
		},
	})
	if err != nil {
		return nil, err
	}

	liked := make(map[string]bool, len(rows))
	for _, row := range rows {
		if poemID, ok := row["poem_id"].(string); ok {
			liked[poemID] = true
		}
	}
	return liked, nil
}

// applyLike bumps the local engagement view for a poem after a successful
// like write. The next full refresh reconciles with the authoritative count.
func (s *FeedService) applyLike(poemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.byPoem[poemID]; ok {
		item.Engagement.ApplyLike()
	}
}

func (s *FeedService) applyUnlike(poemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.byPoem[poemID]; ok {
		item.Engagement.ApplyUnlike()
	}
}

func (s *FeedService) applyComment(poemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.byPoem[poemID]; ok {
		item.Engagement.ApplyComment()
	}
}

// normalizeCount unwraps an aggregate count descriptor. Backends disagree on
// the shape: some return a bare integer, some a {count: N} object, some a
// one-element array of either. Anything unrecognized counts as zero rather
// than failing the whole fetch; the anomaly is logged.
func (s *FeedService) normalizeCount(v any) int {
	n, ok := parseCountDescriptor(v)
	if !ok {
		s.logger.Warn("Unrecognized count descriptor shape, treating as zero", "value", v)
		return 0
	}
	return n
}

// parseCountDescriptor is the tolerant-parse core of normalizeCount.
func parseCountDescriptor(v any) (int, bool) {
	switch c := v.(type) {
	case nil:
		return 0, true
	case int:
		return c, true
	case int64:
		return int(c), true
	case float64:
		return int(c), true
	case data.Row:
		return parseCountDescriptor(c["count"])
	case map[string]any:
		return parseCountDescriptor(c["count"])
	case []any:
		if len(c) == 0 {
			return 0, true
		}
		if len(c) == 1 {
			return parseCountDescriptor(c[0])
		}
		return 0, false
	default:
		return 0, false
	}
}
