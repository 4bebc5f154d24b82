// ABOUTME: Tests for the SQLite memory store.
// ABOUTME: Covers save, search, list ordering, and delete semantics.

package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSave_AssignsID(t *testing.T) {
	store := newTestStore(t)

	note, err := store.Save(context.Background(), "thread-1", "user prefers metric units")
	require.NoError(t, err)
	assert.NotEmpty(t, note.ID)
	assert.False(t, note.CreatedAt.IsZero())
}

func TestSave_RejectsEmptyContent(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save(context.Background(), "thread-1", "")
	assert.Error(t, err)
}

func TestSearch_MatchesSubstring(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "thread-1", "user prefers metric units")
	require.NoError(t, err)
	_, err = store.Save(ctx, "thread-1", "user lives in Portland")
	require.NoError(t, err)

	notes, err := store.Search(ctx, "thread-1", "metric")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Content, "metric")
}

func TestSearch_ScopedToThread(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "thread-1", "shared topic")
	require.NoError(t, err)
	_, err = store.Save(ctx, "thread-2", "shared topic")
	require.NoError(t, err)

	notes, err := store.Search(ctx, "thread-1", "shared")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "thread-1", notes[0].ThreadID)
}

func TestList_ReturnsAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		_, err := store.Save(ctx, "thread-1", content)
		require.NoError(t, err)
	}

	notes, err := store.List(ctx, "thread-1")
	require.NoError(t, err)
	assert.Len(t, notes, 3)
}

func TestDelete_RemovesNote(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	note, err := store.Save(ctx, "thread-1", "to be forgotten")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, note.ID))

	notes, err := store.List(ctx, "thread-1")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestDelete_UnknownIDIsNoop(t *testing.T) {
	store := newTestStore(t)

	assert.NoError(t, store.Delete(context.Background(), "nope"))
}
