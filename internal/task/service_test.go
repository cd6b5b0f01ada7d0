// ABOUTME: Tests for the task service
// ABOUTME: Covers validation, ownership scoping, completion semantics

package task

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessellated/taskchat/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(st), st
}

func newTestUser(t *testing.T, st *store.SQLiteStore, email string) string {
	t.Helper()

	user := &store.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, st.CreateUser(context.Background(), user))
	return user.ID
}

func TestService_CreateValidation(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	userID := newTestUser(t, st, "alice@example.com")

	tests := []struct {
		name    string
		params  CreateParams
		wantErr error
	}{
		{"empty title", CreateParams{Title: ""}, ErrInvalidTitle},
		{"whitespace title", CreateParams{Title: "   "}, ErrInvalidTitle},
		{"title too long", CreateParams{Title: strings.Repeat("x", 256)}, ErrInvalidTitle},
		{"description too long", CreateParams{Title: "ok", Description: strings.Repeat("x", 1001)}, ErrInvalidDescription},
		{"title at limit", CreateParams{Title: strings.Repeat("x", 255)}, nil},
		{"description at limit", CreateParams{Title: "ok", Description: strings.Repeat("x", 1000)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, userID, tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_CreateTrimsTitle(t *testing.T) {
	svc, st := newTestService(t)
	userID := newTestUser(t, st, "alice@example.com")

	task, err := svc.Create(context.Background(), userID, CreateParams{Title: "  buy milk  "})
	require.NoError(t, err)
	assert.Equal(t, "buy milk", task.Title)
}

func TestService_UpdatePartial(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	userID := newTestUser(t, st, "alice@example.com")

	task, err := svc.Create(ctx, userID, CreateParams{Title: "original", Description: "desc"})
	require.NoError(t, err)

	newTitle := "renamed"
	updated, err := svc.Update(ctx, userID, task.ID, UpdateParams{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "desc", updated.Description)
	assert.False(t, updated.Completed)

	done := true
	updated, err = svc.Update(ctx, userID, task.ID, UpdateParams{Completed: &done})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.True(t, updated.Completed)
}

func TestService_CompleteIdempotent(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	userID := newTestUser(t, st, "alice@example.com")

	task, err := svc.Create(ctx, userID, CreateParams{Title: "finish report"})
	require.NoError(t, err)

	completed, already, err := svc.Complete(ctx, userID, task.ID)
	require.NoError(t, err)
	assert.True(t, completed.Completed)
	assert.False(t, already)

	// Second completion reports the task was already done
	completed, already, err = svc.Complete(ctx, userID, task.ID)
	require.NoError(t, err)
	assert.True(t, completed.Completed)
	assert.True(t, already)
}

func TestService_ToggleCompletion(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	userID := newTestUser(t, st, "alice@example.com")

	task, err := svc.Create(ctx, userID, CreateParams{Title: "toggle me"})
	require.NoError(t, err)

	toggled, err := svc.ToggleCompletion(ctx, userID, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	toggled, err = svc.ToggleCompletion(ctx, userID, task.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
}

func TestService_OwnershipScoping(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := newTestUser(t, st, "alice@example.com")
	bob := newTestUser(t, st, "bob@example.com")

	task, err := svc.Create(ctx, alice, CreateParams{Title: "alice's"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	title := "bob's now"
	_, err = svc.Update(ctx, bob, task.ID, UpdateParams{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, bob, task.ID), ErrNotFound)

	page, err := svc.List(ctx, bob, ListParams{})
	require.NoError(t, err)
	assert.Empty(t, page.Tasks)
	assert.Zero(t, page.Total)
}

func TestService_ListFilterAndCount(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	userID := newTestUser(t, st, "alice@example.com")

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, userID, CreateParams{Title: "task"})
		require.NoError(t, err)
	}
	done, err := svc.Create(ctx, userID, CreateParams{Title: "done task"})
	require.NoError(t, err)
	_, _, err = svc.Complete(ctx, userID, done.ID)
	require.NoError(t, err)

	completed := true
	page, err := svc.List(ctx, userID, ListParams{Completed: &completed})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, 1, page.Total)

	pending := false
	page, err = svc.List(ctx, userID, ListParams{Completed: &pending})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 3)
	assert.Equal(t, 3, page.Total)

	page, err = svc.List(ctx, userID, ListParams{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 2)
	assert.Equal(t, 4, page.Total)
}
