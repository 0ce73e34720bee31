package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManakRaj-7/AnonVerse/internal/authkit"
	"github.com/ManakRaj-7/AnonVerse/internal/data"
	"github.com/ManakRaj-7/AnonVerse/internal/data/sqlite"
	"github.com/ManakRaj-7/AnonVerse/internal/id"
	"github.com/ManakRaj-7/AnonVerse/internal/localstate"
	"github.com/ManakRaj-7/AnonVerse/internal/validation"
)

const testSessionKey = "0000000000000000000000000000000000000000000000000000000000000001"

// captureMailer records confirmation tokens so tests can complete the flow.
type captureMailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *captureMailer) SendConfirmation(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = make(map[string]string)
	}
	m.tokens[email] = token
	return nil
}

func (m *captureMailer) tokenFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}

// hookedData wraps a real data service with test instrumentation: a
// before-select hook for fault injection and a write counter for asserting
// that gated actions never reach the data layer.
type hookedData struct {
	inner        data.Service
	mu           sync.Mutex
	beforeSelect func(q data.Query) error
	writes       int
}

func (h *hookedData) setBeforeSelect(fn func(q data.Query) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.beforeSelect = fn
}

func (h *hookedData) writeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.writes
}

func (h *hookedData) countWrite() {
	h.mu.Lock()
	h.writes++
	h.mu.Unlock()
}

func (h *hookedData) Select(ctx context.Context, q data.Query) ([]data.Row, error) {
	h.mu.Lock()
	hook := h.beforeSelect
	h.mu.Unlock()
	if hook != nil {
		if err := hook(q); err != nil {
			return nil, err
		}
	}
	return h.inner.Select(ctx, q)
}

func (h *hookedData) CountRows(ctx context.Context, table string, filters ...data.Filter) (int, error) {
	return h.inner.CountRows(ctx, table, filters...)
}

func (h *hookedData) Insert(ctx context.Context, table string, record data.Row) error {
	h.countWrite()
	return h.inner.Insert(ctx, table, record)
}

func (h *hookedData) Update(ctx context.Context, table string, patch data.Row, filters ...data.Filter) error {
	h.countWrite()
	return h.inner.Update(ctx, table, patch, filters...)
}

func (h *hookedData) Delete(ctx context.Context, table string, filters ...data.Filter) error {
	h.countWrite()
	return h.inner.Delete(ctx, table, filters...)
}

// testEnv wires the full client core over real local capabilities.
type testEnv struct {
	store      *sqlite.Store
	data       *hookedData
	auth       *authkit.Local
	mailer     *captureMailer
	local      *localstate.Store
	sessions   *SessionStore
	feed       *FeedService
	engagement *EngagementService
	social     *SocialService
	poems      *PoemService
	profiles   *ProfileService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlite.OpenMemory(discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hooked := &hookedData{inner: store}

	tokens, err := authkit.NewTokenService(testSessionKey, time.Hour)
	require.NoError(t, err)

	mailer := &captureMailer{}
	auth, err := authkit.OpenLocal(hooked, tokens, mailer, t.TempDir(), discard)
	require.NoError(t, err)

	local, err := localstate.Open(t.TempDir(), discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	v := validation.New()

	sessions := NewSessionStore(auth, hooked, local, v, discard)
	require.NoError(t, sessions.Start(context.Background()))
	t.Cleanup(func() { _ = sessions.Close() })

	feed := NewFeedService(hooked, sessions, discard)

	return &testEnv{
		store:      store,
		data:       hooked,
		auth:       auth,
		mailer:     mailer,
		local:      local,
		sessions:   sessions,
		feed:       feed,
		engagement: NewEngagementService(hooked, sessions, feed, discard),
		social:     NewSocialService(hooked, sessions, discard),
		poems:      NewPoemService(hooked, sessions, v, discard),
		profiles:   NewProfileService(hooked, sessions, v, discard),
	}
}

// createAccount signs up and confirms an account without signing in.
func createAccount(t *testing.T, env *testEnv, email, password, penName string) {
	t.Helper()

	pending, err := env.sessions.SignUp(context.Background(), email, password, penName)
	require.NoError(t, err)
	require.True(t, pending)
	require.NoError(t, env.auth.Confirm(context.Background(), env.mailer.tokenFor(email)))
}

// signIn authenticates an existing account and returns the viewer's ID.
func signIn(t *testing.T, env *testEnv, email, password string) string {
	t.Helper()

	require.NoError(t, env.sessions.SignIn(context.Background(), email, password))
	viewer := env.sessions.Viewer()
	require.NotNil(t, viewer)
	return viewer.ID
}

// insertPoem writes a poem row directly, bypassing the capability gate.
func insertPoem(t *testing.T, env *testEnv, authorID, title string) string {
	t.Helper()

	poemID, err := id.Generate(id.PrefixPoem)
	require.NoError(t, err)

	now := data.FormatTime(time.Now())
	require.NoError(t, env.store.Insert(context.Background(), data.TablePoems, data.Row{
		"id":         poemID,
		"title":      title,
		"content":    "the quiet line breaks here",
		"author_id":  authorID,
		"created_at": now,
		"updated_at": now,
	}))
	return poemID
}

// insertLike writes a like row directly.
func insertLike(t *testing.T, env *testEnv, poemID, userID string) {
	t.Helper()

	likeID, err := id.Generate(id.PrefixLike)
	require.NoError(t, err)
	require.NoError(t, env.store.Insert(context.Background(), data.TableLikes, data.Row{
		"id":         likeID,
		"poem_id":    poemID,
		"user_id":    userID,
		"created_at": data.FormatTime(time.Now()),
	}))
}

// authorID looks up a profile ID by pen name.
func authorID(t *testing.T, env *testEnv, penName string) string {
	t.Helper()

	rows, err := env.store.Select(context.Background(), data.Query{
		Table:   data.TableProfiles,
		Filters: []data.Filter{data.Eq("pen_name", penName)},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	idValue, _ := rows[0]["id"].(string)
	return idValue
}
