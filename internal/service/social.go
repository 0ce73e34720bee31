package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ManakRaj-7/AnonVerse/internal/data"
	"github.com/ManakRaj-7/AnonVerse/internal/domain"
	domainerrors "github.com/ManakRaj-7/AnonVerse/internal/errors"
	"github.com/ManakRaj-7/AnonVerse/internal/id"
	"github.com/ManakRaj-7/AnonVerse/internal/tier"
)

// SocialService tracks the viewer-relative social graph: follower and
// following counts for a target profile and the viewer's follow edge to it.
// Follow and unfollow apply optimistic local increments; the authoritative
// counts reconcile on the next LoadFollowState.
type SocialService struct {
	data     data.Service
	sessions *SessionStore
	logger   *slog.Logger

	mu     sync.Mutex
	states map[string]*domain.FollowState
}

// NewSocialService creates a social graph tracker.
func NewSocialService(dataSvc data.Service, sessions *SessionStore, logger *slog.Logger) *SocialService {
	return &SocialService{
		data:     dataSvc,
		sessions: sessions,
		logger:   logger,
		states:   make(map[string]*domain.FollowState),
	}
}

// LoadFollowState computes the follow summary for a target profile. The
// viewer's own relationship is only computed when a viewer is present and
// differs from the target; a self-profile never exposes a follow action.
func (s *SocialService) LoadFollowState(ctx context.Context, targetID string) (domain.FollowState, error) {
	if !tier.Allowed(s.sessions.Tier(), tier.ActionViewProfile) {
		return domain.FollowState{}, domainerrors.Forbidden("sign in or continue as guest to view profiles")
	}

	followerCount, err := s.data.CountRows(ctx, data.TableFollowers, data.Eq("following_id", targetID))
	if err != nil {
		return domain.FollowState{}, fmt.Errorf("count followers: %w", err)
	}
	followingCount, err := s.data.CountRows(ctx, data.TableFollowers, data.Eq("follower_id", targetID))
	if err != nil {
		return domain.FollowState{}, fmt.Errorf("count following: %w", err)
	}

	state := &domain.FollowState{
		TargetID:       targetID,
		FollowerCount:  followerCount,
		FollowingCount: followingCount,
	}

	viewer := s.sessions.Viewer()
	if viewer != nil && viewer.ID != targetID {
		n, err := s.data.CountRows(ctx, data.TableFollowers,
			data.Eq("follower_id", viewer.ID),
			data.Eq("following_id", targetID))
		if err != nil {
			return domain.FollowState{}, fmt.Errorf("check follow edge: %w", err)
		}
		state.ViewerIsFollowing = n > 0
	}

	s.mu.Lock()
	s.states[targetID] = state
	snapshot := *state
	s.mu.Unlock()

	return snapshot, nil
}

// Follow inserts a follow edge from the viewer to the target and bumps the
// local follower count. Fails with InvalidOperation for a self-follow and
// Forbidden for tiers without a viewer, both before any network call. A
// duplicate edge reports success.
func (s *SocialService) Follow(ctx context.Context, targetID string) (domain.FollowState, error) {
	viewer := s.sessions.Viewer()
	if viewer == nil || !tier.Allowed(s.sessions.Tier(), tier.ActionFollow) {
		return domain.FollowState{}, domainerrors.Forbidden("sign in to follow poets")
	}
	if viewer.ID == targetID {
		return domain.FollowState{}, domainerrors.InvalidOperation("cannot follow yourself")
	}

	edgeID, err := id.Generate(id.PrefixFollow)
	if err != nil {
		return domain.FollowState{}, fmt.Errorf("generate follow ID: %w", err)
	}

	err = s.data.Insert(ctx, data.TableFollowers, data.Row{
		"id":           edgeID,
		"follower_id":  viewer.ID,
		"following_id": targetID,
		"created_at":   data.FormatTime(time.Now()),
	})
	if err != nil && !domainerrors.Is(err, domainerrors.ErrUniqueViolation) {
		return domain.FollowState{}, err
	}
	if domainerrors.Is(err, domainerrors.ErrUniqueViolation) {
		s.logger.Debug("Follow edge already exists", "follower_id", viewer.ID, "following_id", targetID)
	}

	return s.applyFollow(targetID, true), nil
}

// Unfollow removes the viewer's follow edge and decrements the local count,
// floored at zero.
func (s *SocialService) Unfollow(ctx context.Context, targetID string) (domain.FollowState, error) {
	viewer := s.sessions.Viewer()
	if viewer == nil || !tier.Allowed(s.sessions.Tier(), tier.ActionFollow) {
		return domain.FollowState{}, domainerrors.Forbidden("sign in to follow poets")
	}
	if viewer.ID == targetID {
		return domain.FollowState{}, domainerrors.InvalidOperation("cannot unfollow yourself")
	}

	err := s.data.Delete(ctx, data.TableFollowers,
		data.Eq("follower_id", viewer.ID),
		data.Eq("following_id", targetID))
	if err != nil {
		return domain.FollowState{}, err
	}

	return s.applyFollow(targetID, false), nil
}

// applyFollow mutates the cached state for a target and returns a snapshot.
func (s *SocialService) applyFollow(targetID string, following bool) domain.FollowState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[targetID]
	if !ok {
		state = &domain.FollowState{TargetID: targetID}
		s.states[targetID] = state
	}
	if following {
		state.ApplyFollow()
	} else {
		state.ApplyUnfollow()
	}
	return *state
}
