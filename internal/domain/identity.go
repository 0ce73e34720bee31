// Package domain contains the core types of the AnonVerse client: identities,
// poems, comments, engagement aggregates, and the social graph.
package domain

import "time"

// Identity is an authenticated principal's public profile. The client holds a
// read-through cached copy; the persistence layer owns the record.
type Identity struct {
	ID        string    `json:"id"`
	PenName   string    `json:"pen_name"`
	Bio       *string   `json:"bio,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (i *Identity) Touch() {
	i.UpdatedAt = time.Now()
}
