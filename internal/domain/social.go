package domain

import "time"

// FollowEdge is a directed edge in the social graph. Unique per ordered
// (follower, following) pair; self-follows are disallowed.
type FollowEdge struct {
	ID          string    `json:"id"`
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// FollowState is the viewer-relative summary of a target profile's graph
// position. Derived on load, mutated optimistically by follow/unfollow.
type FollowState struct {
	TargetID          string `json:"target_id"`
	FollowerCount     int    `json:"follower_count"`
	FollowingCount    int    `json:"following_count"`
	ViewerIsFollowing bool   `json:"viewer_is_following"`
}

// ApplyFollow records an optimistic local follow.
func (f *FollowState) ApplyFollow() {
	if f.ViewerIsFollowing {
		return
	}
	f.FollowerCount++
	f.ViewerIsFollowing = true
}

// ApplyUnfollow records an optimistic local unfollow, floored at zero.
func (f *FollowState) ApplyUnfollow() {
	f.ViewerIsFollowing = false
	if f.FollowerCount > 0 {
		f.FollowerCount--
	}
}
