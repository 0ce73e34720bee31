package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/ManakRaj-7/AnonVerse/internal/data"
	domainerrors "github.com/ManakRaj-7/AnonVerse/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir()+"/test.db", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func insertProfile(t *testing.T, s *Store, id, penName string) {
	t.Helper()
	now := data.FormatTime(time.Now())
	err := s.Insert(context.Background(), data.TableProfiles, data.Row{
		"id":           id,
		"pen_name":     penName,
		"pen_name_key": penName,
		"created_at":   now,
		"updated_at":   now,
	})
	require.NoError(t, err)
}

func insertPoem(t *testing.T, s *Store, id, authorID, title string, createdAt time.Time) {
	t.Helper()
	err := s.Insert(context.Background(), data.TablePoems, data.Row{
		"id":         id,
		"title":      title,
		"content":    "some verse",
		"author_id":  authorID,
		"created_at": data.FormatTime(createdAt),
		"updated_at": data.FormatTime(createdAt),
	})
	require.NoError(t, err)
}

func insertLike(t *testing.T, s *Store, id, poemID, userID string) {
	t.Helper()
	err := s.Insert(context.Background(), data.TableLikes, data.Row{
		"id":         id,
		"poem_id":    poemID,
		"user_id":    userID,
		"created_at": data.FormatTime(time.Now()),
	})
	require.NoError(t, err)
}

func TestInsertSelect_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	insertProfile(t, s, "usr-1", "Quiet Raven")

	rows, err := s.Select(ctx, data.Query{
		Table:   data.TableProfiles,
		Filters: []data.Filter{data.Eq("id", "usr-1")},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Quiet Raven", rows[0]["pen_name"])
	assert.Nil(t, rows[0]["bio"])
}

func TestInsert_UniqueViolation(t *testing.T) {
	s := setupTestStore(t)

	insertProfile(t, s, "usr-1", "A")
	insertPoem(t, s, "poem-1", "usr-1", "First", time.Now())
	insertLike(t, s, "like-1", "poem-1", "usr-1")

	// Second like by the same user on the same poem hits the unique index.
	err := s.Insert(context.Background(), data.TableLikes, data.Row{
		"id":         "like-2",
		"poem_id":    "poem-1",
		"user_id":    "usr-1",
		"created_at": data.FormatTime(time.Now()),
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUniqueViolation))
}

func TestInsert_SelfFollowRejected(t *testing.T) {
	s := setupTestStore(t)

	insertProfile(t, s, "usr-1", "A")

	err := s.Insert(context.Background(), data.TableFollowers, data.Row{
		"id":           "flw-1",
		"follower_id":  "usr-1",
		"following_id": "usr-1",
		"created_at":   data.FormatTime(time.Now()),
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestSelect_CountsAndJoin(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	insertProfile(t, s, "usr-1", "Author")
	insertProfile(t, s, "usr-2", "Fan")
	insertProfile(t, s, "usr-3", "Other Fan")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	insertPoem(t, s, "poem-1", "usr-1", "Older", base)
	insertPoem(t, s, "poem-2", "usr-1", "Newer", base.Add(time.Hour))

	insertLike(t, s, "like-1", "poem-1", "usr-2")
	insertLike(t, s, "like-2", "poem-1", "usr-3")

	rows, err := s.Select(ctx, data.Query{
		Table: data.TablePoems,
		Joins: []data.Join{{
			Table: data.TableProfiles, LocalColumn: "author_id", ForeignColumn: "id", As: "profiles",
		}},
		Counts: []data.Count{
			{Table: data.TableLikes, ForeignColumn: "poem_id", As: "likes_count"},
			{Table: data.TableComments, ForeignColumn: "poem_id", As: "comments_count"},
		},
		Order: []data.Order{{Column: "created_at", Descending: true}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Descending creation order: newest first.
	assert.Equal(t, "poem-2", rows[0]["id"])
	assert.Equal(t, "poem-1", rows[1]["id"])

	// Count descriptors come back wrapped, as remote backends return them.
	descriptor, ok := rows[1]["likes_count"].([]any)
	require.True(t, ok)
	require.Len(t, descriptor, 1)
	inner, ok := descriptor[0].(data.Row)
	require.True(t, ok)
	assert.EqualValues(t, 2, inner["count"])

	// Joined author profile is embedded as a nested row.
	author, ok := rows[0]["profiles"].(data.Row)
	require.True(t, ok)
	assert.Equal(t, "Author", author["pen_name"])
}

func TestSelect_EmptyInMatchesNothing(t *testing.T) {
	s := setupTestStore(t)

	insertProfile(t, s, "usr-1", "A")
	insertPoem(t, s, "poem-1", "usr-1", "First", time.Now())
	insertLike(t, s, "like-1", "poem-1", "usr-1")

	rows, err := s.Select(context.Background(), data.Query{
		Table:   data.TableLikes,
		Filters: []data.Filter{data.In("poem_id")},
	})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCountRows(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	insertProfile(t, s, "usr-1", "A")
	insertProfile(t, s, "usr-2", "B")
	insertProfile(t, s, "usr-3", "C")

	now := data.FormatTime(time.Now())
	for _, follower := range []string{"usr-2", "usr-3"} {
		require.NoError(t, s.Insert(ctx, data.TableFollowers, data.Row{
			"id":           "flw-" + follower,
			"follower_id":  follower,
			"following_id": "usr-1",
			"created_at":   now,
		}))
	}

	n, err := s.CountRows(ctx, data.TableFollowers, data.Eq("following_id", "usr-1"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.CountRows(ctx, data.TableFollowers, data.Eq("follower_id", "usr-1"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUpdate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	insertProfile(t, s, "usr-1", "Before")

	err := s.Update(ctx, data.TableProfiles,
		data.Row{"pen_name": "After", "bio": "collected verses"},
		data.Eq("id", "usr-1"))
	require.NoError(t, err)

	rows, err := s.Select(ctx, data.Query{
		Table:   data.TableProfiles,
		Filters: []data.Filter{data.Eq("id", "usr-1")},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "After", rows[0]["pen_name"])
	assert.Equal(t, "collected verses", rows[0]["bio"])
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	insertProfile(t, s, "usr-1", "A")
	insertPoem(t, s, "poem-1", "usr-1", "First", time.Now())
	insertLike(t, s, "like-1", "poem-1", "usr-1")

	err := s.Delete(ctx, data.TableLikes,
		data.Eq("poem_id", "poem-1"), data.Eq("user_id", "usr-1"))
	require.NoError(t, err)

	n, err := s.CountRows(ctx, data.TableLikes)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Deleting an already-deleted row is not an error.
	require.NoError(t, s.Delete(ctx, data.TableLikes, data.Eq("id", "like-1")))
}
