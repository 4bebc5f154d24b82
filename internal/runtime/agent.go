// ABOUTME: Agent runtime orchestrating sessions, model calls, and tool execution.
// ABOUTME: Drives the dedupe check, history replay, and bounded tool-call loop per turn.

package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/coven-sdk/internal/channel"
	"github.com/2389/coven-sdk/internal/dedupe"
	"github.com/2389/coven-sdk/internal/events"
	"github.com/2389/coven-sdk/internal/gateway"
	"github.com/2389/coven-sdk/internal/model"
	"github.com/2389/coven-sdk/internal/session"
	"github.com/2389/coven-sdk/internal/tool"
	"github.com/2389/coven-sdk/internal/wire"
)

const (
	defaultHistoryLimit  = 50
	defaultMaxToolRounds = 8
)

// Options configures an Agent.
type Options struct {
	SystemPrompt  string
	HistoryLimit  int
	MaxToolRounds int
	Logger        *slog.Logger
}

// Agent ties a model provider, session store, and tool registry together
// into a message handler channels can drive.
type Agent struct {
	store    session.Store
	provider model.Provider
	tools    *tool.Registry
	tracker  *dedupe.Tracker
	logger   *slog.Logger
	opts     Options
}

// New creates an agent. The tool registry may be empty; the tracker may be
// nil to disable deduplication.
func New(store session.Store, provider model.Provider, tools *tool.Registry, tracker *dedupe.Tracker, opts Options) *Agent {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = defaultMaxToolRounds
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if tools == nil {
		tools = tool.NewRegistry()
	}

	return &Agent{
		store:    store,
		provider: provider,
		tools:    tools,
		tracker:  tracker,
		logger:   opts.Logger.With("component", "agent"),
		opts:     opts,
	}
}

// Handler adapts the agent to the channel.Handler signature for the named
// channel.
func (a *Agent) Handler(channelName string) channel.Handler {
	return func(ctx context.Context, msg *channel.InboundMessage) (string, error) {
		return a.HandleMessage(ctx, channelName, msg)
	}
}

// HandleMessage processes one inbound message and returns the agent's reply.
// Redelivered messages (same id within the dedupe window) return an empty
// reply without touching the model.
func (a *Agent) HandleMessage(ctx context.Context, channelName string, msg *channel.InboundMessage) (string, error) {
	if a.tracker != nil && msg.ID != "" && a.tracker.Seen(msg.ID) {
		a.logger.Debug("duplicate message dropped", "message_id", msg.ID)
		return "", nil
	}

	thread, err := a.store.EnsureThread(ctx, channelName, msg.ThreadKey)
	if err != nil {
		return "", fmt.Errorf("resolving thread: %w", err)
	}

	history, err := a.store.History(ctx, thread.ID, a.opts.HistoryLimit)
	if err != nil {
		return "", fmt.Errorf("loading history: %w", err)
	}

	messages := a.buildMessages(history, msg)

	if err := a.store.AppendMessage(ctx, &session.Message{
		ThreadID: thread.ID,
		Role:     "user",
		Sender:   msg.Sender,
		Content:  msg.Text,
	}); err != nil {
		return "", fmt.Errorf("persisting user message: %w", err)
	}

	reply, err := a.completeWithTools(ctx, messages)
	if err != nil {
		return "", err
	}

	if err := a.store.AppendMessage(ctx, &session.Message{
		ThreadID: thread.ID,
		Role:     "assistant",
		Sender:   a.provider.Info().Name,
		Content:  reply,
	}); err != nil {
		return "", fmt.Errorf("persisting reply: %w", err)
	}

	return reply, nil
}

// buildMessages assembles the model request: system prompt, persisted
// history, then the new user message.
func (a *Agent) buildMessages(history []*session.Message, msg *channel.InboundMessage) []model.Message {
	messages := make([]model.Message, 0, len(history)+2)
	if a.opts.SystemPrompt != "" {
		messages = append(messages, model.Message{Role: "system", Content: a.opts.SystemPrompt})
	}
	for _, h := range history {
		messages = append(messages, model.Message{Role: h.Role, Content: h.Content})
	}
	messages = append(messages, model.Message{Role: "user", Content: msg.Text})
	return messages
}

// completeWithTools runs the model, executing requested tools and feeding
// results back until the model stops asking or the round limit is reached.
func (a *Agent) completeWithTools(ctx context.Context, messages []model.Message) (string, error) {
	defs := a.tools.Definitions()

	for round := 0; round <= a.opts.MaxToolRounds; round++ {
		resp, err := a.provider.Complete(ctx, model.Request{
			Messages: messages,
			Tools:    defs,
		})
		if err != nil {
			return "", fmt.Errorf("model completion: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		messages = append(messages, model.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			result, err := a.tools.Execute(ctx, call.Name, call.Arguments)
			if err != nil {
				a.logger.Warn("tool execution failed",
					"tool", call.Name,
					"error", err)
				result = fmt.Sprintf("error: %v", err)
			}
			messages = append(messages, model.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("tool loop exceeded %d rounds", a.opts.MaxToolRounds)
}

// BindGatewayEvents forwards the client's push events into the broadcaster
// so in-process subscribers can observe gateway activity.
func BindGatewayEvents(client *gateway.Client, b *events.Broadcaster) {
	client.SetEventSink(func(evt *wire.Event) {
		b.Publish(evt)
	})
}
