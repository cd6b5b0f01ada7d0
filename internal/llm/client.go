// ABOUTME: Provider-agnostic chat completion client interface
// ABOUTME: Defines messages, tool calls, tool schemas, and completions

package llm

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the model provider could not produce a
// completion. Callers treat the whole turn as failed; nothing derived
// from a partial exchange should be persisted.
var ErrUnavailable = errors.New("model unavailable")

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a tool invocation requested by the model. Arguments is the
// raw JSON string exactly as the model produced it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry in the transcript sent to the model. Assistant
// messages may carry ToolCalls; tool messages answer one call and carry
// its ToolCallID.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolSchema describes one callable tool to the model. Parameters is a
// JSON Schema object.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Completion is one model response: either text, tool calls, or both
type Completion struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// Client produces chat completions. Implementations wrap a specific
// provider; the orchestration layer only speaks this interface.
type Client interface {
	Complete(ctx context.Context, messages []Message, tools []ToolSchema) (*Completion, error)
}
