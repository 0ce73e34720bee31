package authkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc, err := NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)

	token, expiresAt, err := svc.GenerateSessionToken("usr_abc123", "poet@example.com", time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.VerifySessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "usr_abc123", claims.UserID)
	assert.Equal(t, "poet@example.com", claims.Email)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc, err := NewTokenService(testKeyHex, time.Minute)
	require.NoError(t, err)

	token, _, err := svc.GenerateSessionToken("usr_abc123", "poet@example.com", time.Now().Add(-2*time.Minute))
	require.NoError(t, err)

	_, err = svc.VerifySessionToken(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsWrongKey(t *testing.T) {
	svc, err := NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)
	other, err := NewTokenService("000000000000000000000000000000000000000000000000000000000000beef", time.Hour)
	require.NoError(t, err)

	token, _, err := svc.GenerateSessionToken("usr_abc123", "poet@example.com", time.Now())
	require.NoError(t, err)

	_, err = other.VerifySessionToken(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsBadKey(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService("zz00000000000000000000000000000000000000000000000000000000000000", time.Hour)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	t.Run("verify round trip", func(t *testing.T) {
		hash, err := HashPassword("correct horse battery staple")
		require.NoError(t, err)
		assert.NotContains(t, hash, "correct horse")

		ok, err := VerifyPassword(hash, "correct horse battery staple")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = VerifyPassword(hash, "wrong password")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hashes are salted", func(t *testing.T) {
		first, err := HashPassword("same password")
		require.NoError(t, err)
		second, err := HashPassword("same password")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("malformed hash reports mismatch", func(t *testing.T) {
		ok, err := VerifyPassword("not-an-argon-hash", "anything")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
