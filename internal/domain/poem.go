package domain

import "time"

// Poem is a published piece. Poems are immutable once created; there is no
// edit flow.
type Poem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPoem creates a poem with initialized timestamps.
func NewPoem(id, title, content, authorID string) *Poem {
	now := time.Now()
	return &Poem{
		ID:        id,
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Comment is a reply on a poem. Append-only from the client's perspective.
type Comment struct {
	ID        string    `json:"id"`
	PoemID    string    `json:"poem_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
