// ABOUTME: Thread-safe registry for the tools exposed over MCP.
// ABOUTME: Owns tool registration, lookup, input validation, and invocation.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrToolCollision indicates a tool name is already registered.
var ErrToolCollision = errors.New("tool name collision")

// ErrToolNotFound indicates the named tool is not registered.
var ErrToolNotFound = errors.New("tool not found")

// Handler executes a tool call. Input has already been validated against
// the tool's schema. A returned error is a business failure; the registry
// converts it into an isError result rather than propagating it.
type Handler func(ctx context.Context, input json.RawMessage) (*Result, error)

// Tool describes a single callable tool.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}

// Content is one block of tool output.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the outcome of a tool call. IsError marks a business failure
// that is still delivered as a successful protocol response.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// TextResult builds a successful single-text-block result.
func TextResult(format string, args ...any) *Result {
	return &Result{
		Content: []Content{{Type: "text", Text: fmt.Sprintf(format, args...)}},
	}
}

// ErrorResult builds a business-failure result with IsError set.
func ErrorResult(format string, args ...any) *Result {
	return &Result{
		Content: []Content{{Type: "text", Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// Registry maintains the set of registered tools.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*Tool
	order  []string // registration order, used for stable listings
	logger *slog.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger.With("component", "tools"),
	}
}

// Register adds a tool to the registry.
// Returns ErrToolCollision if the name is already taken. The schema is
// compiled here so malformed schemas fail at startup, not at call time.
func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("tool must have a name")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q must have a handler", t.Name)
	}
	if _, err := compileSchema(t.InputSchema); err != nil {
		return fmt.Errorf("tool %q schema: %w", t.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("%w: %q", ErrToolCollision, t.Name)
	}

	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)

	r.logger.Debug("tool registered", "tool", t.Name, "total_tools", len(r.tools))
	return nil
}

// RegisterAll registers each tool in order, stopping at the first failure.
func (r *Registry) RegisterAll(ts []*Tool) error {
	for _, t := range ts {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// List returns all tools in registration order.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}

// Get returns the named tool, or nil if not registered.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Invoke validates input against the tool's schema and runs its handler.
// Unknown names return ErrToolNotFound and validation failures return a
// wrapped ErrInvalidInput; in both cases the handler never runs. Handler
// errors become isError results.
func (r *Registry) Invoke(ctx context.Context, name string, input json.RawMessage) (*Result, error) {
	tool := r.Get(name)
	if tool == nil {
		return nil, fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}

	if err := ValidateInput(tool.InputSchema, input); err != nil {
		return nil, err
	}

	result, err := tool.Handler(ctx, input)
	if err != nil {
		r.logger.Debug("tool call failed", "tool", name, "error", err)
		return ErrorResult("%v", err), nil
	}
	return result, nil
}
