// ABOUTME: Executor interface and the Outcome envelope returned by every tool
// ABOUTME: Outcomes are what the model sees; they never carry Go errors

package tools

import (
	"context"
	"encoding/json"
)

// Outcome is the uniform result envelope for a tool call. Exactly one of
// Data and Error is meaningful: Data when Success is true, Error when it
// is false. Infrastructure failures and schema errors both land here as
// unsuccessful outcomes so the model always gets a well-formed reply.
type Outcome struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// OK builds a successful outcome with the given payload.
// Marshal failures degrade to an error outcome rather than panicking.
func OK(payload any) Outcome {
	data, err := json.Marshal(payload)
	if err != nil {
		return Fail("encoding tool result: " + err.Error())
	}
	return Outcome{Success: true, Data: data}
}

// Fail builds an unsuccessful outcome with the given message
func Fail(message string) Outcome {
	return Outcome{Success: false, Error: message}
}

// Executor runs tool calls on behalf of a user. Implementations must
// return a well-formed Outcome for every call, including per-call
// transport failures; the error return is reserved for the executor
// being unreachable altogether, such as a tool server that cannot be
// spawned.
type Executor interface {
	// Call executes the named tool with raw JSON arguments, scoped to
	// the given user
	Call(ctx context.Context, userID, tool, arguments string) (Outcome, error)
}
