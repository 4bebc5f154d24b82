// ABOUTME: Scriptable in-memory Provider for tests and offline development.
// ABOUTME: Replays queued responses and records the requests it received.

package model

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a Provider that replays scripted responses in order. When the
// script runs out it echoes the last user message. Safe for concurrent use.
type Mock struct {
	mu        sync.Mutex
	responses []*Response
	requests  []Request
}

// NewMock creates an empty mock provider.
func NewMock() *Mock {
	return &Mock{}
}

// Enqueue appends a scripted response.
func (m *Mock) Enqueue(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// Requests returns a copy of every request seen so far.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Complete records the request and returns the next scripted response.
func (m *Mock) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if len(m.responses) > 0 {
		resp := m.responses[0]
		m.responses = m.responses[1:]
		return resp, nil
	}

	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return &Response{
				Content:    fmt.Sprintf("echo: %s", req.Messages[i].Content),
				StopReason: "end_turn",
			}, nil
		}
	}
	return &Response{Content: "echo", StopReason: "end_turn"}, nil
}

// Info returns metadata describing this provider.
func (m *Mock) Info() Info {
	return Info{Name: "mock", Provider: "mock", SupportsTools: true}
}
