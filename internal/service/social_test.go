package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManakRaj-7/AnonVerse/internal/data"
	domainerrors "github.com/ManakRaj-7/AnonVerse/internal/errors"
)

func TestSocialService_FollowIncrementsAndMarks(t *testing.T) {
	env := setupTestEnv(t)
	createAccount(t, env, "a@example.com", "password123", "Poet A")
	createAccount(t, env, "b@example.com", "password123", "Poet B")
	targetB := authorID(t, env, "Poet B")

	signIn(t, env, "a@example.com", "password123")

	before, err := env.social.LoadFollowState(context.Background(), targetB)
	require.NoError(t, err)
	assert.Equal(t, 0, before.FollowerCount)
	assert.False(t, before.ViewerIsFollowing)

	after, err := env.social.Follow(context.Background(), targetB)
	require.NoError(t, err)
	assert.Equal(t, before.FollowerCount+1, after.FollowerCount)
	assert.True(t, after.ViewerIsFollowing)

	// The edge is durable: a fresh load agrees with the optimistic state.
	reloaded, err := env.social.LoadFollowState(context.Background(), targetB)
	require.NoError(t, err)
	assert.Equal(t, after.FollowerCount, reloaded.FollowerCount)
	assert.True(t, reloaded.ViewerIsFollowing)
}

func TestSocialService_SelfFollowRejected(t *testing.T) {
	env := setupTestEnv(t)
	createAccount(t, env, "a@example.com", "password123", "Poet A")
	self := signIn(t, env, "a@example.com", "password123")

	before, err := env.social.LoadFollowState(context.Background(), self)
	require.NoError(t, err)

	_, err = env.social.Follow(context.Background(), self)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOperation)

	after, err := env.social.LoadFollowState(context.Background(), self)
	require.NoError(t, err)
	assert.Equal(t, before.FollowerCount, after.FollowerCount, "counts unchanged after rejected self-follow")

	n, err := env.store.CountRows(context.Background(), data.TableFollowers, data.Eq("following_id", self))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSocialService_SelfProfileNeverComputesFollowing(t *testing.T) {
	env := setupTestEnv(t)
	createAccount(t, env, "a@example.com", "password123", "Poet A")
	self := signIn(t, env, "a@example.com", "password123")

	state, err := env.social.LoadFollowState(context.Background(), self)
	require.NoError(t, err)
	assert.False(t, state.ViewerIsFollowing)
}

func TestSocialService_UnfollowFloorsAtZero(t *testing.T) {
	env := setupTestEnv(t)
	createAccount(t, env, "a@example.com", "password123", "Poet A")
	createAccount(t, env, "b@example.com", "password123", "Poet B")
	targetB := authorID(t, env, "Poet B")

	signIn(t, env, "a@example.com", "password123")
	_, err := env.social.LoadFollowState(context.Background(), targetB)
	require.NoError(t, err)

	state, err := env.social.Unfollow(context.Background(), targetB)
	require.NoError(t, err)
	assert.Equal(t, 0, state.FollowerCount)
	assert.False(t, state.ViewerIsFollowing)

	state, err = env.social.Unfollow(context.Background(), targetB)
	require.NoError(t, err)
	assert.Equal(t, 0, state.FollowerCount)
}

func TestSocialService_FollowUnfollowRoundTrip(t *testing.T) {
	env := setupTestEnv(t)
	createAccount(t, env, "a@example.com", "password123", "Poet A")
	createAccount(t, env, "b@example.com", "password123", "Poet B")
	createAccount(t, env, "c@example.com", "password123", "Poet C")
	targetB := authorID(t, env, "Poet B")

	// B already has one follower.
	signIn(t, env, "c@example.com", "password123")
	_, err := env.social.Follow(context.Background(), targetB)
	require.NoError(t, err)

	signIn(t, env, "a@example.com", "password123")
	before, err := env.social.LoadFollowState(context.Background(), targetB)
	require.NoError(t, err)
	require.Equal(t, 1, before.FollowerCount)

	_, err = env.social.Follow(context.Background(), targetB)
	require.NoError(t, err)
	after, err := env.social.Unfollow(context.Background(), targetB)
	require.NoError(t, err)

	assert.Equal(t, before.FollowerCount, after.FollowerCount)
	assert.False(t, after.ViewerIsFollowing)
}

func TestSocialService_FollowingCount(t *testing.T) {
	env := setupTestEnv(t)
	createAccount(t, env, "a@example.com", "password123", "Poet A")
	createAccount(t, env, "b@example.com", "password123", "Poet B")
	createAccount(t, env, "c@example.com", "password123", "Poet C")
	poetA := authorID(t, env, "Poet A")
	targetB := authorID(t, env, "Poet B")
	poetC := authorID(t, env, "Poet C")

	signIn(t, env, "a@example.com", "password123")
	_, err := env.social.Follow(context.Background(), targetB)
	require.NoError(t, err)
	_, err = env.social.Follow(context.Background(), poetC)
	require.NoError(t, err)

	state, err := env.social.LoadFollowState(context.Background(), poetA)
	require.NoError(t, err)
	assert.Equal(t, 2, state.FollowingCount)
	assert.Equal(t, 0, state.FollowerCount)
}

func TestSocialService_GuestRejectedBeforeNetwork(t *testing.T) {
	env := setupTestEnv(t)
	createAccount(t, env, "b@example.com", "password123", "Poet B")
	targetB := authorID(t, env, "Poet B")

	require.NoError(t, env.sessions.EnterGuest())
	writesBefore := env.data.writeCount()

	_, err := env.social.Follow(context.Background(), targetB)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	_, err = env.social.Unfollow(context.Background(), targetB)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	assert.Equal(t, writesBefore, env.data.writeCount())
}
