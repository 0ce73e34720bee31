// Package service implements the AnonVerse client core: the session store,
// feed aggregation, optimistic engagement mutations, the social graph
// tracker, and poem/profile operations. Services sit between the injected
// auth and data capabilities and whatever surface renders the result.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ManakRaj-7/AnonVerse/internal/authkit"
	"github.com/ManakRaj-7/AnonVerse/internal/data"
	"github.com/ManakRaj-7/AnonVerse/internal/domain"
	domainerrors "github.com/ManakRaj-7/AnonVerse/internal/errors"
	"github.com/ManakRaj-7/AnonVerse/internal/localstate"
	"github.com/ManakRaj-7/AnonVerse/internal/tier"
	"github.com/ManakRaj-7/AnonVerse/internal/validation"
)

// SessionState is the session store's lifecycle state.
type SessionState string

const (
	// SessionLoading is the initial state, held until the first session
	// lookup resolves. Never re-entered afterwards.
	SessionLoading SessionState = "loading"
	// SessionUnauthenticated means no live session exists.
	SessionUnauthenticated SessionState = "unauthenticated"
	// SessionAuthenticated means a live session and its identity are cached.
	SessionAuthenticated SessionState = "authenticated"
)

// credentialsInput is the validated shape of sign-in input.
type credentialsInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// signUpInput additionally carries the pen name.
type signUpInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	PenName  string `json:"pen_name" validate:"required,penname"`
}

// SessionStore is the process-wide cache of the current authenticated
// identity. It owns the auth event subscription exclusively; every component
// that needs "the current viewer" reads it from here at the point of use.
type SessionStore struct {
	auth      authkit.Service
	data      data.Service
	local     *localstate.Store
	validator *validation.Validator
	logger    *slog.Logger

	mu     sync.RWMutex
	state  SessionState
	viewer *domain.Identity

	events  <-chan authkit.Event
	release func()

	done      chan struct{}
	closeOnce sync.Once
}

// NewSessionStore creates a session store in the Loading state.
func NewSessionStore(auth authkit.Service, dataSvc data.Service, local *localstate.Store, v *validation.Validator, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		auth:      auth,
		data:      dataSvc,
		local:     local,
		validator: v,
		logger:    logger,
		state:     SessionLoading,
		done:      make(chan struct{}),
	}
}

// Start resolves the initial session and begins consuming session-change
// events. After Start returns, the state is never Loading again.
func (s *SessionStore) Start(ctx context.Context) error {
	events, release := s.auth.Subscribe()
	s.events = events
	s.release = release

	session, err := s.auth.CurrentSession(ctx)
	if err != nil {
		s.setUnauthenticated()
		release()
		return fmt.Errorf("initial session lookup: %w", err)
	}

	if session == nil {
		s.setUnauthenticated()
	} else if err := s.adoptSession(ctx, session); err != nil {
		s.setUnauthenticated()
		s.logger.Warn("Failed to load identity for restored session", "user_id", session.UserID, "error", err)
	}

	go s.consumeEvents()
	return nil
}

// Close releases the auth subscription. Safe to call more than once.
func (s *SessionStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.release != nil {
			s.release()
		}
	})
	return nil
}

// State returns the current lifecycle state.
func (s *SessionStore) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Viewer returns a snapshot of the cached authenticated identity, or nil.
func (s *SessionStore) Viewer() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.viewer == nil {
		return nil
	}
	snapshot := *s.viewer
	return &snapshot
}

// Tier derives the viewer's access tier from the session state and the local
// guest flag. A live session always supersedes the flag.
func (s *SessionStore) Tier() tier.AccessTier {
	return tier.Resolve(s.State() == SessionAuthenticated, s.local.GuestMode())
}

// SignIn authenticates and caches the identity. Fails with
// InvalidCredentials or UnconfirmedAccount from the auth capability. A
// successful sign-in clears the guest flag so it cannot go stale on a later
// sign-out.
func (s *SessionStore) SignIn(ctx context.Context, email, password string) error {
	input := credentialsInput{Email: email, Password: password}
	if err := s.validator.Validate(input); err != nil {
		return err
	}

	session, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	if err := s.adoptSession(ctx, session); err != nil {
		return err
	}
	s.clearGuestFlag()
	return nil
}

// SignUp creates an account. When the email already belongs to an account
// that the given password correctly authenticates, sign-up completes as an
// implicit sign-in instead of erroring. Returns true when the account was
// created but awaits email confirmation.
func (s *SessionStore) SignUp(ctx context.Context, email, password, penName string) (pendingConfirmation bool, err error) {
	input := signUpInput{Email: email, Password: password, PenName: penName}
	if err := s.validator.Validate(input); err != nil {
		return false, err
	}

	session, err := s.auth.SignUp(ctx, email, password, penName)
	if err != nil {
		if !domainerrors.Is(err, domainerrors.ErrAlreadyExists) {
			return false, err
		}

		// Existing account: the desired end state may already be reachable.
		s.logger.Debug("Sign-up found existing account, attempting sign-in", "email", email)
		if signInErr := s.SignIn(ctx, email, password); signInErr == nil {
			return false, nil
		} else if domainerrors.Is(signInErr, domainerrors.ErrUnconfirmedAccount) {
			return false, signInErr
		}
		return false, err
	}

	if session == nil {
		return true, nil
	}

	if err := s.adoptSession(ctx, session); err != nil {
		return false, err
	}
	s.clearGuestFlag()
	return false, nil
}

// SignOut destroys the live session.
func (s *SessionStore) SignOut(ctx context.Context) error {
	if err := s.auth.SignOut(ctx); err != nil {
		return err
	}
	s.setUnauthenticated()
	return nil
}

// ResendConfirmation re-requests the confirmation message. Session state is
// never altered by a resend.
func (s *SessionStore) ResendConfirmation(ctx context.Context, email string) error {
	return s.auth.ResendConfirmation(ctx, email)
}

// EnterGuest sets the guest flag. A no-op for an authenticated viewer, whose
// tier is decided by the live session regardless of the flag.
func (s *SessionStore) EnterGuest() error {
	if s.State() == SessionAuthenticated {
		return nil
	}
	return s.local.SetGuestMode(true)
}

// ExitGuest clears the guest flag, returning the viewer to Anonymous.
func (s *SessionStore) ExitGuest() error {
	return s.local.SetGuestMode(false)
}

// adoptSession loads the session's identity and moves to Authenticated.
func (s *SessionStore) adoptSession(ctx context.Context, session *authkit.Session) error {
	identity, err := s.loadIdentity(ctx, session.UserID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = SessionAuthenticated
	s.viewer = identity
	s.mu.Unlock()
	return nil
}

// loadIdentity fetches the profile row for a user.
func (s *SessionStore) loadIdentity(ctx context.Context, userID string) (*domain.Identity, error) {
	rows, err := s.data.Select(ctx, data.Query{
		Table:   data.TableProfiles,
		Filters: []data.Filter{data.Eq("id", userID)},
	})
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, domainerrors.NotFoundf("no profile for user %s", userID)
	}

	identity := identityFromRow(rows[0])
	return &identity, nil
}

// setViewer replaces the cached identity in place. Used after a profile
// update so the rest of the client sees the fresh pen name immediately.
func (s *SessionStore) setViewer(identity *domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionAuthenticated {
		s.viewer = identity
	}
}

func (s *SessionStore) setUnauthenticated() {
	s.mu.Lock()
	s.state = SessionUnauthenticated
	s.viewer = nil
	s.mu.Unlock()
}

func (s *SessionStore) clearGuestFlag() {
	if err := s.local.SetGuestMode(false); err != nil {
		s.logger.Warn("Failed to clear guest flag after authentication", "error", err)
	}
}

// consumeEvents applies session-change notifications until Close.
func (s *SessionStore) consumeEvents() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.events:
			if !ok {
				return
			}
			s.applyEvent(event)
		}
	}
}

// applyEvent deterministically replaces the current state per event.
func (s *SessionStore) applyEvent(event authkit.Event) {
	switch event.Type {
	case authkit.EventSignedOut:
		s.setUnauthenticated()
	case authkit.EventSignedIn, authkit.EventTokenRefreshed:
		if event.Session == nil {
			s.setUnauthenticated()
			return
		}
		if err := s.adoptSession(context.Background(), event.Session); err != nil {
			s.logger.Warn("Failed to adopt session from event", "type", event.Type, "error", err)
			s.setUnauthenticated()
		}
	default:
		s.logger.Debug("Ignoring unknown session event", "type", event.Type)
	}
}
