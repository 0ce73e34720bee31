package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngagementView_ApplyLike(t *testing.T) {
	e := EngagementView{LikeCount: 3}

	e.ApplyLike()
	assert.Equal(t, 4, e.LikeCount)
	assert.True(t, e.ViewerHasLiked)

	// Second like from the same viewer is a no-op.
	e.ApplyLike()
	assert.Equal(t, 4, e.LikeCount)
}

func TestEngagementView_ApplyUnlike(t *testing.T) {
	e := EngagementView{LikeCount: 1, ViewerHasLiked: true}

	e.ApplyUnlike()
	assert.Equal(t, 0, e.LikeCount)
	assert.False(t, e.ViewerHasLiked)

	// Unliking again never goes negative.
	e.ApplyUnlike()
	assert.Equal(t, 0, e.LikeCount)
}

func TestEngagementView_ApplyComment(t *testing.T) {
	var e EngagementView

	e.ApplyComment()
	e.ApplyComment()
	assert.Equal(t, 2, e.CommentCount)
}

func TestFollowState_ApplyFollow(t *testing.T) {
	f := FollowState{TargetID: "usr_abc", FollowerCount: 10}

	f.ApplyFollow()
	assert.Equal(t, 11, f.FollowerCount)
	assert.True(t, f.ViewerIsFollowing)

	f.ApplyFollow()
	assert.Equal(t, 11, f.FollowerCount)
}

func TestFollowState_ApplyUnfollow(t *testing.T) {
	f := FollowState{TargetID: "usr_abc", FollowerCount: 1, ViewerIsFollowing: true}

	f.ApplyUnfollow()
	assert.Equal(t, 0, f.FollowerCount)
	assert.False(t, f.ViewerIsFollowing)

	f.ApplyUnfollow()
	assert.Equal(t, 0, f.FollowerCount)
}
