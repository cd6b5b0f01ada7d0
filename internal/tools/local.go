// ABOUTME: In-process tool executor backed directly by the task service
// ABOUTME: Maps tool calls to owner-scoped task operations and builds Outcomes

package tools

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tessellated/taskchat/internal/store"
	"github.com/tessellated/taskchat/internal/task"
)

// taskPayload is the wire shape of a task inside tool outcomes
type taskPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toPayload(t *store.Task) taskPayload {
	return taskPayload{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// LocalExecutor executes tools in-process against the task service
type LocalExecutor struct {
	registry *Registry
	tasks    *task.Service
	logger   *slog.Logger
}

// NewLocalExecutor creates an executor that runs tools in-process
func NewLocalExecutor(registry *Registry, tasks *task.Service) *LocalExecutor {
	return &LocalExecutor{
		registry: registry,
		tasks:    tasks,
		logger:   slog.Default().With("component", "tools"),
	}
}

// Call executes the named tool. Schema errors, missing tasks, and
// infrastructure failures all come back as unsuccessful Outcomes; the
// error return is always nil for the local transport.
func (e *LocalExecutor) Call(ctx context.Context, userID, tool, arguments string) (Outcome, error) {
	if !e.registry.Has(tool) {
		return Fail("unknown tool: " + tool), nil
	}

	var outcome Outcome
	switch tool {
	case ToolAddTask:
		outcome = e.addTask(ctx, userID, arguments)
	case ToolListTasks:
		outcome = e.listTasks(ctx, userID, arguments)
	case ToolCompleteTask:
		outcome = e.completeTask(ctx, userID, arguments)
	case ToolDeleteTask:
		outcome = e.deleteTask(ctx, userID, arguments)
	case ToolUpdateTask:
		outcome = e.updateTask(ctx, userID, arguments)
	}

	e.logger.Debug("tool executed", "tool", tool, "user_id", userID, "success", outcome.Success)
	return outcome, nil
}

// failFrom converts a service error into an unsuccessful outcome.
// Internal details are logged, not shown to the model.
func (e *LocalExecutor) failFrom(tool string, err error) Outcome {
	var schemaErr *SchemaError
	switch {
	case errors.As(err, &schemaErr):
		return Fail(schemaErr.Error())
	case errors.Is(err, task.ErrNotFound):
		return Fail("task not found")
	case errors.Is(err, task.ErrInvalidTitle), errors.Is(err, task.ErrInvalidDescription):
		return Fail(err.Error())
	default:
		e.logger.Error("tool failed", "tool", tool, "error", err)
		return Fail("internal error executing " + tool)
	}
}

func (e *LocalExecutor) addTask(ctx context.Context, userID, arguments string) Outcome {
	args, err := e.registry.ParseAddTask(arguments)
	if err != nil {
		return e.failFrom(ToolAddTask, err)
	}

	created, err := e.tasks.Create(ctx, userID, task.CreateParams{
		Title:       args.Title,
		Description: args.Description,
	})
	if err != nil {
		return e.failFrom(ToolAddTask, err)
	}

	return OK(toPayload(created))
}

func (e *LocalExecutor) listTasks(ctx context.Context, userID, arguments string) Outcome {
	args, err := e.registry.ParseListTasks(arguments)
	if err != nil {
		return e.failFrom(ToolListTasks, err)
	}

	var completed *bool
	switch args.Status {
	case StatusPending:
		v := false
		completed = &v
	case StatusCompleted:
		v := true
		completed = &v
	}

	page, err := e.tasks.List(ctx, userID, task.ListParams{Completed: completed})
	if err != nil {
		return e.failFrom(ToolListTasks, err)
	}

	payloads := make([]taskPayload, 0, len(page.Tasks))
	for _, t := range page.Tasks {
		payloads = append(payloads, toPayload(t))
	}

	return OK(map[string]any{
		"tasks": payloads,
		"count": page.Total,
	})
}

func (e *LocalExecutor) completeTask(ctx context.Context, userID, arguments string) Outcome {
	args, err := e.registry.ParseCompleteTask(arguments)
	if err != nil {
		return e.failFrom(ToolCompleteTask, err)
	}

	completed, already, err := e.tasks.Complete(ctx, userID, args.TaskID)
	if err != nil {
		return e.failFrom(ToolCompleteTask, err)
	}

	result := map[string]any{"task": toPayload(completed)}
	if already {
		result["note"] = "task was already completed"
	}
	return OK(result)
}

func (e *LocalExecutor) deleteTask(ctx context.Context, userID, arguments string) Outcome {
	args, err := e.registry.ParseDeleteTask(arguments)
	if err != nil {
		return e.failFrom(ToolDeleteTask, err)
	}

	if err := e.tasks.Delete(ctx, userID, args.TaskID); err != nil {
		return e.failFrom(ToolDeleteTask, err)
	}

	return OK(map[string]any{
		"deleted": true,
		"task_id": args.TaskID,
	})
}

func (e *LocalExecutor) updateTask(ctx context.Context, userID, arguments string) Outcome {
	args, err := e.registry.ParseUpdateTask(arguments)
	if err != nil {
		return e.failFrom(ToolUpdateTask, err)
	}

	updated, err := e.tasks.Update(ctx, userID, args.TaskID, task.UpdateParams{
		Title:       args.Title,
		Description: args.Description,
		Completed:   args.Completed,
	})
	if err != nil {
		return e.failFrom(ToolUpdateTask, err)
	}

	return OK(toPayload(updated))
}

var _ Executor = (*LocalExecutor)(nil)
