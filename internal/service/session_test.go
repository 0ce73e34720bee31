package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/ManakRaj-7/AnonVerse/internal/errors"
	"github.com/ManakRaj-7/AnonVerse/internal/tier"
)

func TestSessionStore_InitialState(t *testing.T) {
	env := setupTestEnv(t)

	assert.Equal(t, SessionUnauthenticated, env.sessions.State())
	assert.Nil(t, env.sessions.Viewer())
	assert.Equal(t, tier.Anonymous, env.sessions.Tier())
}

func TestSessionStore_SignInLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	createAccount(t, env, "poet@example.com", "password123", "Quiet Poet")

	userID := signIn(t, env, "poet@example.com", "password123")

	assert.Equal(t, SessionAuthenticated, env.sessions.State())
	assert.Equal(t, tier.Authenticated, env.sessions.Tier())
	viewer := env.sessions.Viewer()
	require.NotNil(t, viewer)
	assert.Equal(t, userID, viewer.ID)
	assert.Equal(t, "Quiet Poet", viewer.PenName)

	require.NoError(t, env.sessions.SignOut(context.Background()))
	assert.Equal(t, SessionUnauthenticated, env.sessions.State())
	assert.Nil(t, env.sessions.Viewer())
	assert.Equal(t, tier.Anonymous, env.sessions.Tier())
}

func TestSessionStore_SignInValidation(t *testing.T) {
	env := setupTestEnv(t)

	err := env.sessions.SignIn(context.Background(), "not-an-email", "password123")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	err = env.sessions.SignIn(context.Background(), "poet@example.com", "short")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestSessionStore_GuestFlow(t *testing.T) {
	env := setupTestEnv(t)

	require.NoError(t, env.sessions.EnterGuest())
	assert.Equal(t, tier.Guest, env.sessions.Tier())
	assert.True(t, env.local.GuestMode())

	require.NoError(t, env.sessions.ExitGuest())
	assert.Equal(t, tier.Anonymous, env.sessions.Tier())
	assert.False(t, env.local.GuestMode())
}

func TestSessionStore_SignInClearsGuestFlag(t *testing.T) {
	env := setupTestEnv(t)
	createAccount(t, env, "poet@example.com", "password123", "Quiet Poet")

	require.NoError(t, env.sessions.EnterGuest())
	signIn(t, env, "poet@example.com", "password123")

	assert.False(t, env.local.GuestMode(), "authentication must clear the guest flag")
	assert.Equal(t, tier.Authenticated, env.sessions.Tier())

	// After sign-out the cleared flag leaves the viewer Anonymous, not Guest.
	require.NoError(t, env.sessions.SignOut(context.Background()))
	assert.Equal(t, tier.Anonymous, env.sessions.Tier())
}

func TestSessionStore_SessionSupersedesGuestFlag(t *testing.T) {
	env := setupTestEnv(t)
	createAccount(t, env, "poet@example.com", "password123", "Quiet Poet")
	signIn(t, env, "poet@example.com", "password123")

	// An externally set guest flag never demotes a live session.
	require.NoError(t, env.local.SetGuestMode(true))
	assert.Equal(t, tier.Authenticated, env.sessions.Tier())
}

func TestSessionStore_SignUpPendingConfirmation(t *testing.T) {
	env := setupTestEnv(t)

	pending, err := env.sessions.SignUp(context.Background(), "poet@example.com", "password123", "Quiet Poet")
	require.NoError(t, err)
	assert.True(t, pending)
	assert.Equal(t, SessionUnauthenticated, env.sessions.State())
}

func TestSessionStore_SignUpExistingAccountIsImplicitSignIn(t *testing.T) {
	env := setupTestEnv(t)
	createAccount(t, env, "poet@example.com", "password123", "Quiet Poet")

	// Matching credentials: sign-up resolves to a signed-in session.
	pending, err := env.sessions.SignUp(context.Background(), "poet@example.com", "password123", "Another Name")
	require.NoError(t, err)
	assert.False(t, pending)
	assert.Equal(t, SessionAuthenticated, env.sessions.State())
	viewer := env.sessions.Viewer()
	require.NotNil(t, viewer)
	assert.Equal(t, "Quiet Poet", viewer.PenName, "existing profile wins over the new pen name")
}

func TestSessionStore_SignUpExistingAccountWrongPassword(t *testing.T) {
	env := setupTestEnv(t)
	createAccount(t, env, "poet@example.com", "password123", "Quiet Poet")

	pending, err := env.sessions.SignUp(context.Background(), "poet@example.com", "wrongpassword", "Imposter")
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
	assert.False(t, pending)
	assert.Equal(t, SessionUnauthenticated, env.sessions.State())
}

func TestSessionStore_UnconfirmedSignInAndResend(t *testing.T) {
	env := setupTestEnv(t)

	pending, err := env.sessions.SignUp(context.Background(), "poet@example.com", "password123", "Quiet Poet")
	require.NoError(t, err)
	require.True(t, pending)

	err = env.sessions.SignIn(context.Background(), "poet@example.com", "password123")
	assert.ErrorIs(t, err, domainerrors.ErrUnconfirmedAccount)

	// Resend succeeds and leaves session state untouched.
	require.NoError(t, env.sessions.ResendConfirmation(context.Background(), "poet@example.com"))
	assert.Equal(t, SessionUnauthenticated, env.sessions.State())
}

func TestSessionStore_SignOutEventFromProvider(t *testing.T) {
	env := setupTestEnv(t)
	createAccount(t, env, "poet@example.com", "password123", "Quiet Poet")
	signIn(t, env, "poet@example.com", "password123")

	// Sign out through the auth capability directly; the store must observe
	// the event and drop its cached identity.
	require.NoError(t, env.auth.SignOut(context.Background()))

	require.Eventually(t, func() bool {
		return env.sessions.State() == SessionUnauthenticated
	}, time.Second, 10*time.Millisecond)
	assert.Nil(t, env.sessions.Viewer())
}
