package localstate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_MissingFileIsZeroState(t *testing.T) {
	s := setupTestStore(t)
	assert.False(t, s.GuestMode())
}

func TestSetGuestMode_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, nil)
	require.NoError(t, err)

	require.NoError(t, s.SetGuestMode(true))
	assert.True(t, s.GuestMode())
	require.NoError(t, s.Close())

	// A fresh store sees the persisted flag.
	s2, err := Open(dir, nil)
	require.NoError(t, err)
	defer s2.Close()
	assert.True(t, s2.GuestMode())

	require.NoError(t, s2.SetGuestMode(false))
	assert.False(t, s2.GuestMode())
}

func TestOpen_CorruptFileResets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFile), []byte("{not json"), 0o644))

	s, err := Open(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.GuestMode())
}

func TestSubscribe_NotifiedOnSet(t *testing.T) {
	s := setupTestStore(t)

	ch, release := s.Subscribe()
	defer release()

	require.NoError(t, s.SetGuestMode(true))

	select {
	case state := <-ch:
		assert.True(t, state.GuestMode)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state notification")
	}
}

func TestSubscribe_NotifiedOnExternalWrite(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	ch, release := s.Subscribe()
	defer release()

	// Simulate another process flipping the flag.
	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFile), []byte(`{"guest_mode":true}`), 0o644))

	select {
	case state := <-ch:
		assert.True(t, state.GuestMode)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for external change notification")
	}
	assert.True(t, s.GuestMode())
}

func TestSubscribe_ReleaseClosesChannel(t *testing.T) {
	s := setupTestStore(t)

	ch, release := s.Subscribe()
	release()

	_, open := <-ch
	assert.False(t, open)

	// Releasing twice is safe.
	release()
}

func TestSetGuestMode_NoopWhenUnchanged(t *testing.T) {
	s := setupTestStore(t)

	ch, release := s.Subscribe()
	defer release()

	require.NoError(t, s.SetGuestMode(false))

	select {
	case <-ch:
		t.Fatal("no notification expected for a no-op set")
	case <-time.After(100 * time.Millisecond):
	}
}
