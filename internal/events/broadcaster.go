// ABOUTME: In-memory fan-out for gateway push events.
// ABOUTME: Subscribers register by event name prefix and receive matching frames.

package events

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/coven-sdk/internal/wire"
)

// subscriberBufferSize is the channel buffer for each subscriber. A slow
// consumer drops events rather than stalling the dispatch path.
const subscriberBufferSize = 64

type subscription struct {
	prefix string
	ch     chan *wire.Event
}

// Broadcaster fans gateway push events out to interested subscribers.
// A subscriber names an event prefix ("agent." matches "agent.thinking");
// the empty prefix matches everything.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[string]*subscription
	logger *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subs:   make(map[string]*subscription),
		logger: logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber for events whose name starts with prefix.
// Returns the receive channel and a subscription id for Unsubscribe. The
// subscription is cleaned up automatically when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, prefix string) (<-chan *wire.Event, string) {
	subID := uuid.New().String()
	sub := &subscription{
		prefix: prefix,
		ch:     make(chan *wire.Event, subscriberBufferSize),
	}

	b.mu.Lock()
	b.subs[subID] = sub
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "prefix", prefix, "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return sub.ch, subID
}

// Publish delivers an event to every subscriber whose prefix matches.
// Non-blocking: events are dropped for subscribers whose channels are full.
func (b *Broadcaster) Publish(event *wire.Event) {
	b.mu.RLock()
	targets := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if strings.HasPrefix(event.Event, sub.prefix) {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		select {
		case sub.ch <- event:
		default:
			b.logger.Debug("dropped event for slow subscriber",
				"event", event.Event,
				"prefix", sub.prefix)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[subID]
	if !ok {
		return
	}
	delete(b.subs, subID)
	close(sub.ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subID, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, subID)
	}

	b.logger.Debug("broadcaster closed")
}
