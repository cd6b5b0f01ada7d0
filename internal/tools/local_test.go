// ABOUTME: Tests for the in-process tool executor
// ABOUTME: Exercises every tool end-to-end against a real SQLite store

package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessellated/taskchat/internal/store"
	"github.com/tessellated/taskchat/internal/task"
)

func newTestExecutor(t *testing.T) (*LocalExecutor, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	user := &store.User{
		ID:           uuid.New().String(),
		Email:        "alice@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, st.CreateUser(context.Background(), user))

	exec := NewLocalExecutor(NewRegistry(), task.NewService(st))
	return exec, user.ID
}

func decodeData(t *testing.T, outcome Outcome) map[string]any {
	t.Helper()

	require.True(t, outcome.Success, "expected success, got error: %s", outcome.Error)
	var data map[string]any
	require.NoError(t, json.Unmarshal(outcome.Data, &data))
	return data
}

func TestLocalExecutor_EveryDefinitionHasABinding(t *testing.T) {
	exec, userID := newTestExecutor(t)
	ctx := context.Background()

	defs := exec.registry.Definitions()
	require.Len(t, defs, 5)

	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		require.False(t, seen[def.Name], "duplicate definition %s", def.Name)
		seen[def.Name] = true

		// Empty arguments may fail schema validation, but a registered
		// tool must dispatch to a real binding: either a success or a
		// described failure, never unknown-tool and never a blank
		// outcome.
		outcome, err := exec.Call(ctx, userID, def.Name, `{}`)
		require.NoError(t, err)
		assert.True(t, outcome.Success || outcome.Error != "", "definition %s produced no outcome", def.Name)
		assert.NotContains(t, outcome.Error, "unknown tool", "definition %s has no executor binding", def.Name)
	}

	// And the reverse: a name outside the registry has no binding.
	outcome, err := exec.Call(ctx, userID, "reboot_server", `{}`)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "unknown tool")
}

func TestLocalExecutor_AddAndListTasks(t *testing.T) {
	exec, userID := newTestExecutor(t)
	ctx := context.Background()

	outcome, err := exec.Call(ctx, userID, ToolAddTask, `{"title": "buy milk", "description": "two liters"}`)
	require.NoError(t, err)
	created := decodeData(t, outcome)
	assert.Equal(t, "buy milk", created["title"])
	assert.Equal(t, false, created["completed"])
	taskID := created["id"].(string)
	assert.NotEmpty(t, taskID)

	outcome, err = exec.Call(ctx, userID, ToolListTasks, `{}`)
	require.NoError(t, err)
	listed := decodeData(t, outcome)
	assert.Equal(t, float64(1), listed["count"])
	tasks := listed["tasks"].([]any)
	require.Len(t, tasks, 1)
	first := tasks[0].(map[string]any)
	assert.Equal(t, taskID, first["id"])
}

func TestLocalExecutor_ListTasksStatusFilter(t *testing.T) {
	exec, userID := newTestExecutor(t)
	ctx := context.Background()

	outcome, err := exec.Call(ctx, userID, ToolAddTask, `{"title": "pending one"}`)
	require.NoError(t, err)
	require.True(t, outcome.Success)

	outcome, err = exec.Call(ctx, userID, ToolAddTask, `{"title": "done one"}`)
	require.NoError(t, err)
	doneID := decodeData(t, outcome)["id"].(string)

	outcome, err = exec.Call(ctx, userID, ToolCompleteTask, `{"task_id": "`+doneID+`"}`)
	require.NoError(t, err)
	require.True(t, outcome.Success)

	outcome, err = exec.Call(ctx, userID, ToolListTasks, `{"status": "completed"}`)
	require.NoError(t, err)
	completed := decodeData(t, outcome)
	assert.Equal(t, float64(1), completed["count"])

	outcome, err = exec.Call(ctx, userID, ToolListTasks, `{"status": "pending"}`)
	require.NoError(t, err)
	pending := decodeData(t, outcome)
	assert.Equal(t, float64(1), pending["count"])
}

func TestLocalExecutor_CompleteTaskAlreadyCompleted(t *testing.T) {
	exec, userID := newTestExecutor(t)
	ctx := context.Background()

	outcome, err := exec.Call(ctx, userID, ToolAddTask, `{"title": "finish report"}`)
	require.NoError(t, err)
	taskID := decodeData(t, outcome)["id"].(string)

	outcome, err = exec.Call(ctx, userID, ToolCompleteTask, `{"task_id": "`+taskID+`"}`)
	require.NoError(t, err)
	first := decodeData(t, outcome)
	assert.NotContains(t, first, "note")

	// Completing again succeeds but carries a note for the model
	outcome, err = exec.Call(ctx, userID, ToolCompleteTask, `{"task_id": "`+taskID+`"}`)
	require.NoError(t, err)
	second := decodeData(t, outcome)
	assert.Equal(t, "task was already completed", second["note"])
}

func TestLocalExecutor_UpdateAndDeleteTask(t *testing.T) {
	exec, userID := newTestExecutor(t)
	ctx := context.Background()

	outcome, err := exec.Call(ctx, userID, ToolAddTask, `{"title": "original"}`)
	require.NoError(t, err)
	taskID := decodeData(t, outcome)["id"].(string)

	outcome, err = exec.Call(ctx, userID, ToolUpdateTask, `{"task_id": "`+taskID+`", "title": "renamed"}`)
	require.NoError(t, err)
	updated := decodeData(t, outcome)
	assert.Equal(t, "renamed", updated["title"])

	outcome, err = exec.Call(ctx, userID, ToolDeleteTask, `{"task_id": "`+taskID+`"}`)
	require.NoError(t, err)
	deleted := decodeData(t, outcome)
	assert.Equal(t, true, deleted["deleted"])
	assert.Equal(t, taskID, deleted["task_id"])

	outcome, err = exec.Call(ctx, userID, ToolDeleteTask, `{"task_id": "`+taskID+`"}`)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "task not found", outcome.Error)
}

func TestLocalExecutor_ErrorsAreOutcomesNotErrors(t *testing.T) {
	exec, userID := newTestExecutor(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		tool      string
		arguments string
		wantIn    string
	}{
		{"unknown tool", "drop_tables", `{}`, "unknown tool"},
		{"missing title", ToolAddTask, `{}`, "title"},
		{"malformed json", ToolAddTask, `{broken`, "title"},
		{"bad uuid", ToolCompleteTask, `{"task_id": "nope"}`, "UUID"},
		{"missing task", ToolCompleteTask, `{"task_id": "` + uuid.New().String() + `"}`, "not found"},
		{"bad status", ToolListTasks, `{"status": "someday"}`, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := exec.Call(ctx, userID, tt.tool, tt.arguments)
			require.NoError(t, err)
			assert.False(t, outcome.Success)
			assert.Contains(t, outcome.Error, tt.wantIn)
			assert.Empty(t, outcome.Data)
		})
	}
}

func TestLocalExecutor_OwnershipScoping(t *testing.T) {
	exec, alice := newTestExecutor(t)
	ctx := context.Background()

	outcome, err := exec.Call(ctx, alice, ToolAddTask, `{"title": "alice's"}`)
	require.NoError(t, err)
	taskID := decodeData(t, outcome)["id"].(string)

	// A different user ID sees nothing
	bob := uuid.New().String()
	outcome, err = exec.Call(ctx, bob, ToolCompleteTask, `{"task_id": "`+taskID+`"}`)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "task not found", outcome.Error)
}
