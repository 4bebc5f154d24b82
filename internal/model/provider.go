// ABOUTME: Model provider abstraction for chat completion backends.
// ABOUTME: Normalizes messages, tool definitions, and tool calls across vendors.

package model

import "context"

// Message is one normalized chat turn.
type Message struct {
	Role    string // "system", "user", "assistant", "tool"
	Content string

	// ToolCalls is set on assistant messages that requested tool execution.
	ToolCalls []ToolCall

	// ToolCallID links a tool-role message back to the call it answers.
	ToolCallID string
}

// ToolDefinition describes a tool the model may call.
type ToolDefinition struct {
	Name        string
	Description string
	// Parameters is a JSON Schema object describing the arguments.
	Parameters map[string]any
}

// ToolCall is a model's request to execute a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON
}

// Request is a normalized completion request.
type Request struct {
	Messages []Message
	Tools    []ToolDefinition
}

// Response is a completed model turn. When ToolCalls is non-empty the caller
// is expected to execute them and continue the conversation.
type Response struct {
	Content    string
	ToolCalls  []ToolCall
	StopReason string
}

// Info describes a provider implementation.
type Info struct {
	Name          string
	Provider      string
	SupportsTools bool
}

// Provider is a chat completion backend.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Info() Info
}
