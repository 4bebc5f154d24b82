// ABOUTME: Tool interface and registry for model-invocable functions.
// ABOUTME: Tools receive raw JSON arguments and return plain text results.

package tool

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/2389/coven-sdk/internal/model"
)

// Tool is a function the model may invoke during a turn.
type Tool interface {
	// Name is the identifier the model uses to call this tool.
	Name() string

	// Description tells the model what the tool does.
	Description() string

	// Schema is a JSON Schema object describing the tool's arguments.
	Schema() map[string]any

	// Execute runs the tool with raw JSON arguments and returns a text result.
	Execute(ctx context.Context, args string) (string, error)
}

// Registry holds the tools available to an agent. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: slog.Default().With("component", "tool-registry"),
	}
}

// Register adds a tool. Registering a duplicate name is an error.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool name is required")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q is already registered", name)
	}

	r.tools[name] = t
	r.logger.Debug("tool registered", "name", name)
	return nil
}

// Get returns the named tool, or false when absent.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns the registered tools as model tool definitions,
// sorted by name for stable ordering.
func (r *Registry) Definitions() []model.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]model.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute runs the named tool. Unknown tools return an error rather than
// panicking so the caller can report the failure back to the model.
func (r *Registry) Execute(ctx context.Context, name, args string) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}

	result, err := t.Execute(ctx, args)
	if err != nil {
		return "", fmt.Errorf("tool %q failed: %w", name, err)
	}
	return result, nil
}
