// ABOUTME: Tests for the SQLite session store.
// ABOUTME: Covers thread upsert, message ordering, history limits, and provider state.

package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnsureThread_CreatesOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.EnsureThread(ctx, "matrix", "!room:example.org")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	assert.Equal(t, "matrix", first.Channel)
	assert.Equal(t, "!room:example.org", first.ExternalID)

	second, err := store.EnsureThread(ctx, "matrix", "!room:example.org")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestEnsureThread_DistinctPerChannel(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, err := store.EnsureThread(ctx, "matrix", "shared-id")
	require.NoError(t, err)
	b, err := store.EnsureThread(ctx, "console", "shared-id")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestAppendMessage_AssignsIDAndTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	thread, err := store.EnsureThread(ctx, "console", "local")
	require.NoError(t, err)

	msg := &Message{
		ThreadID: thread.ID,
		Role:     "user",
		Sender:   "alice",
		Content:  "hello",
	}
	require.NoError(t, store.AppendMessage(ctx, msg))
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestAppendMessage_RequiresThreadID(t *testing.T) {
	store := newTestStore(t)

	err := store.AppendMessage(context.Background(), &Message{Role: "user", Content: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thread_id")
}

func TestHistory_ChronologicalOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	thread, err := store.EnsureThread(ctx, "console", "local")
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	for i, content := range []string{"first", "second", "third"} {
		require.NoError(t, store.AppendMessage(ctx, &Message{
			ThreadID:  thread.ID,
			Role:      "user",
			Sender:    "alice",
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	msgs, err := store.History(ctx, thread.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "third", msgs[2].Content)
}

func TestHistory_LimitKeepsMostRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	thread, err := store.EnsureThread(ctx, "console", "local")
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.AppendMessage(ctx, &Message{
			ThreadID:  thread.ID,
			Role:      "user",
			Sender:    "alice",
			Content:   string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	msgs, err := store.History(ctx, thread.ID, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "d", msgs[0].Content)
	assert.Equal(t, "e", msgs[1].Content)
}

func TestHistory_EmptyThread(t *testing.T) {
	store := newTestStore(t)

	msgs, err := store.History(context.Background(), "no-such-thread", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestProviderState_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	thread, err := store.EnsureThread(ctx, "console", "local")
	require.NoError(t, err)

	state := map[string]string{"conversation_id": "conv-123", "cursor": "42"}
	require.NoError(t, store.SetProviderState(ctx, thread.ID, "anthropic", state))

	got, err := store.GetProviderState(ctx, thread.ID, "anthropic")
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestProviderState_ReplacesPrevious(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	thread, err := store.EnsureThread(ctx, "console", "local")
	require.NoError(t, err)

	require.NoError(t, store.SetProviderState(ctx, thread.ID, "openai", map[string]string{"v": "1"}))
	require.NoError(t, store.SetProviderState(ctx, thread.ID, "openai", map[string]string{"v": "2"}))

	got, err := store.GetProviderState(ctx, thread.ID, "openai")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"v": "2"}, got)
}

func TestProviderState_AbsentReturnsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetProviderState(context.Background(), "thread", "anthropic")
	require.NoError(t, err)
	assert.Nil(t, got)
}
