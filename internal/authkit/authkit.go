// Package authkit defines the identity capability the client core consumes,
// plus a local reference implementation backed by the data layer.
//
// The remote identity provider is an external collaborator; the core only
// depends on the Service interface: one session lookup, a session-change
// stream, and the sign-in/sign-up/sign-out/resend operations.
package authkit

import (
	"context"
	"time"
)

// Session is a live authenticated session.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EventType classifies a session-change notification.
type EventType string

// Session-change event types.
const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
)

// Event is a session-change notification. Session is nil for sign-out.
type Event struct {
	Type    EventType
	Session *Session
}

// Service is the identity capability consumed by the client core.
type Service interface {
	// CurrentSession returns the live session, or nil when none exists.
	CurrentSession(ctx context.Context) (*Session, error)

	// Subscribe returns a channel of session-change events and a release
	// function. Events may fire zero or more times over the subscription's
	// lifetime; the release function must be called exactly once.
	Subscribe() (<-chan Event, func())

	// SignIn authenticates with email and password. Fails with
	// InvalidCredentials or, for an account that has not completed email
	// confirmation, UnconfirmedAccount.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// SignUp creates an account. Returns a nil session when the account was
	// created but awaits email confirmation. Fails with AlreadyExists when
	// the email is taken, or ValidationError on malformed input.
	SignUp(ctx context.Context, email, password, penName string) (*Session, error)

	// SignOut destroys the live session. A no-op when none exists.
	SignOut(ctx context.Context) error

	// ResendConfirmation re-sends the confirmation message for an
	// unconfirmed account. Fails with DeliveryError when the provider
	// rejects the resend.
	ResendConfirmation(ctx context.Context, email string) error
}

// Mailer delivers confirmation messages for the local provider.
type Mailer interface {
	SendConfirmation(ctx context.Context, email, token string) error
}
