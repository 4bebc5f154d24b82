// ABOUTME: Channel abstraction for surfaces that deliver user messages to an agent.
// ABOUTME: A channel pushes inbound messages to a handler and renders the replies.

package channel

import "context"

// InboundMessage is one user message arriving on a channel.
type InboundMessage struct {
	// ID uniquely identifies the delivery; used for deduplication.
	ID string

	// ThreadKey identifies the conversation within the channel
	// (room id, chat id, terminal session).
	ThreadKey string

	Sender string
	Text   string
}

// Handler processes an inbound message and returns the agent's reply.
type Handler func(ctx context.Context, msg *InboundMessage) (string, error)

// Channel is a surface users talk to the agent through.
type Channel interface {
	// Name identifies the channel kind ("console", "matrix").
	Name() string

	// Run delivers inbound messages to the handler until ctx is cancelled
	// or the channel's input is exhausted.
	Run(ctx context.Context, handler Handler) error
}
