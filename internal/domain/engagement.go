package domain

// EngagementView is a per-poem derived aggregate. It is recomputed on every
// feed fetch, mutated optimistically in place by like/unlike/comment actions,
// and never persisted.
type EngagementView struct {
	LikeCount      int  `json:"like_count"`
	CommentCount   int  `json:"comment_count"`
	ViewerHasLiked bool `json:"viewer_has_liked"`
}

// ApplyLike records an optimistic local like. Idempotent: a second call for a
// viewer who already likes the poem changes nothing.
func (e *EngagementView) ApplyLike() {
	if e.ViewerHasLiked {
		return
	}
	e.LikeCount++
	e.ViewerHasLiked = true
}

// ApplyUnlike records an optimistic local unlike. The count floors at zero so
// a stale view can never go negative.
func (e *EngagementView) ApplyUnlike() {
	e.ViewerHasLiked = false
	if e.LikeCount > 0 {
		e.LikeCount--
	}
}

// ApplyComment bumps the local comment count after a successful post.
func (e *EngagementView) ApplyComment() {
	e.CommentCount++
}
