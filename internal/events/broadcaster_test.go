// ABOUTME: Tests for the event broadcaster.
// ABOUTME: Covers prefix matching, slow-subscriber drops, and unsubscribe cleanup.

package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-sdk/internal/wire"
)

func TestPublish_DeliversToMatchingPrefix(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(context.Background(), "agent.")
	b.Publish(&wire.Event{Event: "agent.thinking"})

	select {
	case ev := <-ch:
		assert.Equal(t, "agent.thinking", ev.Event)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublish_SkipsNonMatchingPrefix(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(context.Background(), "session.")
	b.Publish(&wire.Event{Event: "agent.thinking"})

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %q", ev.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublish_EmptyPrefixMatchesAll(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(context.Background(), "")
	b.Publish(&wire.Event{Event: "agent.thinking"})
	b.Publish(&wire.Event{Event: "session.closed"})

	require.Equal(t, "agent.thinking", (<-ch).Event)
	require.Equal(t, "session.closed", (<-ch).Event)
}

func TestPublish_DropsWhenSubscriberFull(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(context.Background(), "")
	for i := 0; i < subscriberBufferSize+10; i++ {
		b.Publish(&wire.Event{Event: "tick"})
	}

	// Buffer holds exactly subscriberBufferSize events; the rest were dropped.
	assert.Len(t, ch, subscriberBufferSize)
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, subID := b.Subscribe(context.Background(), "")
	b.Unsubscribe(subID)

	_, open := <-ch
	assert.False(t, open)
}

func TestUnsubscribe_UnknownIDIsNoop(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	b.Unsubscribe("nope")
}

func TestSubscribe_ContextCancelCleansUp(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := b.Subscribe(ctx, "")
	cancel()

	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancel")
	}
}

func TestClose_ClosesAllSubscribers(t *testing.T) {
	b := NewBroadcaster(nil)

	ch1, _ := b.Subscribe(context.Background(), "a")
	ch2, _ := b.Subscribe(context.Background(), "b")
	b.Close()

	_, open := <-ch1
	assert.False(t, open)
	_, open = <-ch2
	assert.False(t, open)
}
