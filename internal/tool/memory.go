// ABOUTME: Memory tools give the model durable recall via the memory store.
// ABOUTME: Provides remember, recall, and forget operations scoped to a thread.

package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/2389/coven-sdk/internal/memory"
)

// MemoryTools returns the remember, recall, and forget tools bound to a
// memory store and a thread.
func MemoryTools(store *memory.Store, threadID string) []Tool {
	return []Tool{
		&rememberTool{store: store, threadID: threadID},
		&recallTool{store: store, threadID: threadID},
		&forgetTool{store: store, threadID: threadID},
	}
}

type rememberTool struct {
	store    *memory.Store
	threadID string
}

func (t *rememberTool) Name() string { return "remember" }

func (t *rememberTool) Description() string {
	return "Save a fact to long-term memory for future conversations"
}

func (t *rememberTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{"type": "string", "description": "The fact to remember"},
		},
		"required": []string{"content"},
	}
}

func (t *rememberTool) Execute(ctx context.Context, args string) (string, error) {
	var in struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(args), &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	note, err := t.store.Save(ctx, t.threadID, in.Content)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("remembered (id %s)", note.ID), nil
}

type recallTool struct {
	store    *memory.Store
	threadID string
}

func (t *recallTool) Name() string { return "recall" }

func (t *recallTool) Description() string {
	return "Search long-term memory for previously saved facts"
}

func (t *recallTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "Text to search for; empty lists everything"},
		},
	}
}

func (t *recallTool) Execute(ctx context.Context, args string) (string, error) {
	var in struct {
		Query string `json:"query"`
	}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &in); err != nil {
			return "", fmt.Errorf("invalid input: %w", err)
		}
	}

	var notes []*memory.Note
	var err error
	if in.Query == "" {
		notes, err = t.store.List(ctx, t.threadID)
	} else {
		notes, err = t.store.Search(ctx, t.threadID, in.Query)
	}
	if err != nil {
		return "", err
	}
	if len(notes) == 0 {
		return "no matching memories", nil
	}

	var sb strings.Builder
	for _, n := range notes {
		fmt.Fprintf(&sb, "[%s] %s\n", n.ID, n.Content)
	}
	return sb.String(), nil
}

type forgetTool struct {
	store    *memory.Store
	threadID string
}

func (t *forgetTool) Name() string { return "forget" }

func (t *forgetTool) Description() string {
	return "Delete a fact from long-term memory by id"
}

func (t *forgetTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": map[string]any{"type": "string", "description": "The memory id to delete"},
		},
		"required": []string{"id"},
	}
}

func (t *forgetTool) Execute(ctx context.Context, args string) (string, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(args), &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	if err := t.store.Delete(ctx, in.ID); err != nil {
		return "", err
	}
	return "forgotten", nil
}
