// ABOUTME: Session persistence interfaces and types for chat threads and messages.
// ABOUTME: Threads are keyed by (channel, external id); messages are append-only.

package session

import (
	"context"
	"time"
)

// Thread is one conversation context, keyed by the channel it arrived on and
// the channel's own identifier for it (room id, chat id, terminal session).
type Thread struct {
	ID         string
	Channel    string
	ExternalID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Message is one turn in a thread.
type Message struct {
	ID        string
	ThreadID  string
	Role      string // "user", "assistant", "system", "tool"
	Sender    string
	Content   string
	CreatedAt time.Time
}

// Store persists threads, their messages, and opaque per-thread provider
// state (e.g. a vendor's server-side conversation handle).
type Store interface {
	// EnsureThread returns the thread for (channel, externalID), creating it
	// if it does not exist yet.
	EnsureThread(ctx context.Context, channel, externalID string) (*Thread, error)

	// AppendMessage records a message. ID and CreatedAt are assigned by the
	// store when unset.
	AppendMessage(ctx context.Context, msg *Message) error

	// History returns the most recent messages of a thread in chronological
	// order. limit <= 0 means no limit.
	History(ctx context.Context, threadID string, limit int) ([]*Message, error)

	// SetProviderState stores opaque state for (threadID, providerKey),
	// replacing any previous value.
	SetProviderState(ctx context.Context, threadID, providerKey string, state map[string]string) error

	// GetProviderState returns previously stored state, or nil when absent.
	GetProviderState(ctx context.Context, threadID, providerKey string) (map[string]string, error)

	Close() error
}
