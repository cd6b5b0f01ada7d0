// ABOUTME: Fixed registry of the five todo tools exposed to the model
// ABOUTME: Defines tool schemas, typed arguments, and argument validation

package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Tool names. The set is fixed; the model cannot call anything else.
const (
	ToolAddTask      = "add_task"
	ToolListTasks    = "list_tasks"
	ToolCompleteTask = "complete_task"
	ToolDeleteTask   = "delete_task"
	ToolUpdateTask   = "update_task"
)

// Status filter values accepted by list_tasks
const (
	StatusAll       = "all"
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 1000
)

// ErrUnknownTool indicates the model asked for a tool outside the registry
var ErrUnknownTool = errors.New("unknown tool")

// SchemaError indicates the model supplied arguments that don't match the
// tool's schema. It is reported back to the model, not to the user.
type SchemaError struct {
	Tool    string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Message)
}

func schemaErr(tool, format string, args ...any) error {
	return &SchemaError{Tool: tool, Message: fmt.Sprintf(format, args...)}
}

// Definition describes a tool to the model
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// AddTaskArgs are the arguments for add_task
type AddTaskArgs struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListTasksArgs are the arguments for list_tasks
type ListTasksArgs struct {
	Status string `json:"status,omitempty"`
}

// CompleteTaskArgs are the arguments for complete_task
type CompleteTaskArgs struct {
	TaskID string `json:"task_id"`
}

// DeleteTaskArgs are the arguments for delete_task
type DeleteTaskArgs struct {
	TaskID string `json:"task_id"`
}

// UpdateTaskArgs are the arguments for update_task. Nil fields are left
// unchanged on the task.
type UpdateTaskArgs struct {
	TaskID      string  `json:"task_id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

func validateTaskID(tool, id string) error {
	if id == "" {
		return schemaErr(tool, "task_id is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return schemaErr(tool, "task_id must be a valid UUID")
	}
	return nil
}

func validateTitle(tool, title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return schemaErr(tool, "title is required and must not be blank")
	}
	if len(trimmed) > maxTitleLength {
		return schemaErr(tool, "title must be at most %d characters", maxTitleLength)
	}
	return nil
}

func validateDescription(tool, desc string) error {
	if len(desc) > maxDescriptionLength {
		return schemaErr(tool, "description must be at most %d characters", maxDescriptionLength)
	}
	return nil
}

// Registry is the fixed set of tools the model can call
type Registry struct {
	definitions []Definition
}

// NewRegistry creates the tool registry. The tool set is static.
func NewRegistry() *Registry {
	return &Registry{definitions: buildDefinitions()}
}

// Definitions returns the tool schemas in a stable order
func (r *Registry) Definitions() []Definition {
	return r.definitions
}

// Has reports whether name is a registered tool
func (r *Registry) Has(name string) bool {
	for _, def := range r.definitions {
		if def.Name == name {
			return true
		}
	}
	return false
}

// decodeArgs unmarshals raw tool arguments. Malformed JSON is treated as
// an empty argument object so that required-field errors surface instead
// of an opaque parse error.
func decodeArgs(raw string, dest any) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	// Ignore the error: dest keeps its zero values on bad input
	_ = json.Unmarshal([]byte(raw), dest)
}

// ParseAddTask decodes and validates add_task arguments
func (r *Registry) ParseAddTask(raw string) (*AddTaskArgs, error) {
	var args AddTaskArgs
	decodeArgs(raw, &args)

	if err := validateTitle(ToolAddTask, args.Title); err != nil {
		return nil, err
	}
	if err := validateDescription(ToolAddTask, args.Description); err != nil {
		return nil, err
	}

	args.Title = strings.TrimSpace(args.Title)
	return &args, nil
}

// ParseListTasks decodes and validates list_tasks arguments.
// A missing status defaults to "all".
func (r *Registry) ParseListTasks(raw string) (*ListTasksArgs, error) {
	var args ListTasksArgs
	decodeArgs(raw, &args)

	if args.Status == "" {
		args.Status = StatusAll
	}

	switch args.Status {
	case StatusAll, StatusPending, StatusCompleted:
		return &args, nil
	default:
		return nil, schemaErr(ToolListTasks, "status must be one of %q, %q, %q", StatusAll, StatusPending, StatusCompleted)
	}
}

// ParseCompleteTask decodes and validates complete_task arguments
func (r *Registry) ParseCompleteTask(raw string) (*CompleteTaskArgs, error) {
	var args CompleteTaskArgs
	decodeArgs(raw, &args)

	if err := validateTaskID(ToolCompleteTask, args.TaskID); err != nil {
		return nil, err
	}
	return &args, nil
}

// ParseDeleteTask decodes and validates delete_task arguments
func (r *Registry) ParseDeleteTask(raw string) (*DeleteTaskArgs, error) {
	var args DeleteTaskArgs
	decodeArgs(raw, &args)

	if err := validateTaskID(ToolDeleteTask, args.TaskID); err != nil {
		return nil, err
	}
	return &args, nil
}

// ParseUpdateTask decodes and validates update_task arguments.
// At least one mutable field must be present.
func (r *Registry) ParseUpdateTask(raw string) (*UpdateTaskArgs, error) {
	var args UpdateTaskArgs
	decodeArgs(raw, &args)

	if err := validateTaskID(ToolUpdateTask, args.TaskID); err != nil {
		return nil, err
	}

	if args.Title == nil && args.Description == nil && args.Completed == nil {
		return nil, schemaErr(ToolUpdateTask, "at least one of title, description, completed is required")
	}

	if args.Title != nil {
		if err := validateTitle(ToolUpdateTask, *args.Title); err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(*args.Title)
		args.Title = &trimmed
	}
	if args.Description != nil {
		if err := validateDescription(ToolUpdateTask, *args.Description); err != nil {
			return nil, err
		}
	}

	return &args, nil
}

func buildDefinitions() []Definition {
	return []Definition{
		{
			Name:        ToolAddTask,
			Description: "Add a new task to the user's todo list.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{
						"type":        "string",
						"description": "Short title of the task (1-255 characters).",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Optional longer description (up to 1000 characters).",
					},
				},
				"required": []string{"title"},
			},
		},
		{
			Name:        ToolListTasks,
			Description: "List the user's tasks, optionally filtered by status.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"status": map[string]any{
						"type":        "string",
						"enum":        []string{StatusAll, StatusPending, StatusCompleted},
						"description": "Which tasks to list. Defaults to all.",
					},
				},
			},
		},
		{
			Name:        ToolCompleteTask,
			Description: "Mark a task as completed.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": map[string]any{
						"type":        "string",
						"description": "ID of the task to complete.",
					},
				},
				"required": []string{"task_id"},
			},
		},
		{
			Name:        ToolDeleteTask,
			Description: "Delete a task from the user's todo list.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": map[string]any{
						"type":        "string",
						"description": "ID of the task to delete.",
					},
				},
				"required": []string{"task_id"},
			},
		},
		{
			Name:        ToolUpdateTask,
			Description: "Update a task's title, description, or completion state.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": map[string]any{
						"type":        "string",
						"description": "ID of the task to update.",
					},
					"title": map[string]any{
						"type":        "string",
						"description": "New title (1-255 characters).",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "New description (up to 1000 characters).",
					},
					"completed": map[string]any{
						"type":        "boolean",
						"description": "New completion state.",
					},
				},
				"required": []string{"task_id"},
			},
		},
	}
}
