// ABOUTME: Task service providing validated, owner-scoped task operations
// ABOUTME: All reads and writes are scoped to the acting user's ID

package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tessellated/taskchat/internal/store"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 1000
)

var (
	// ErrNotFound indicates the task doesn't exist or belongs to another user
	ErrNotFound = errors.New("task not found")
	// ErrInvalidTitle indicates a missing or oversized title
	ErrInvalidTitle = fmt.Errorf("title must be 1-%d characters", maxTitleLength)
	// ErrInvalidDescription indicates an oversized description
	ErrInvalidDescription = fmt.Errorf("description must be at most %d characters", maxDescriptionLength)
)

// Service manages tasks on behalf of users
type Service struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a task service backed by the given store
func NewService(st store.Store) *Service {
	return &Service{
		store:  st,
		logger: slog.Default().With("component", "task"),
		now:    time.Now,
	}
}

// CreateParams holds the fields for creating a task
type CreateParams struct {
	Title       string
	Description string
}

// UpdateParams holds the optional fields for updating a task.
// Nil fields are left unchanged.
type UpdateParams struct {
	Title       *string
	Description *string
	Completed   *bool
}

// ListParams controls task listing
type ListParams struct {
	Completed *bool
	Offset    int
	Limit     int
}

// Page is a page of tasks plus the total count matching the filter
type Page struct {
	Tasks []*store.Task
	Total int
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLength {
		return "", ErrInvalidTitle
	}
	return title, nil
}

func validateDescription(desc string) error {
	if len(desc) > maxDescriptionLength {
		return ErrInvalidDescription
	}
	return nil
}

// Create validates and stores a new task owned by userID
func (s *Service) Create(ctx context.Context, userID string, params CreateParams) (*store.Task, error) {
	title, err := validateTitle(params.Title)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(params.Description); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task := &store.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: params.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created", "task_id", task.ID, "user_id", userID)
	return task, nil
}

// Get retrieves a task owned by userID
func (s *Service) Get(ctx context.Context, userID, id string) (*store.Task, error) {
	task, err := s.store.GetTask(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return task, nil
}

// List retrieves a page of tasks owned by userID
func (s *Service) List(ctx context.Context, userID string, params ListParams) (*Page, error) {
	filter := store.TaskFilter{
		Completed: params.Completed,
		Offset:    params.Offset,
		Limit:     params.Limit,
	}

	tasks, err := s.store.ListTasks(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	total, err := s.store.CountTasks(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}

	return &Page{Tasks: tasks, Total: total}, nil
}

// Update applies the non-nil fields of params to a task owned by userID
func (s *Service) Update(ctx context.Context, userID, id string, params UpdateParams) (*store.Task, error) {
	task, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if params.Title != nil {
		title, err := validateTitle(*params.Title)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if params.Description != nil {
		if err := validateDescription(*params.Description); err != nil {
			return nil, err
		}
		task.Description = *params.Description
	}
	if params.Completed != nil {
		task.Completed = *params.Completed
	}

	task.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateTask(ctx, task); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating task: %w", err)
	}

	s.logger.Info("task updated", "task_id", task.ID, "user_id", userID)
	return task, nil
}

// ToggleCompletion flips a task's completed flag
func (s *Service) ToggleCompletion(ctx context.Context, userID, id string) (*store.Task, error) {
	task, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	flipped := !task.Completed
	return s.Update(ctx, userID, id, UpdateParams{Completed: &flipped})
}

// Complete marks a task as completed. It reports whether the task was
// already completed so callers can say so rather than pretend a change
// happened.
func (s *Service) Complete(ctx context.Context, userID, id string) (*store.Task, bool, error) {
	task, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, false, err
	}

	if task.Completed {
		return task, true, nil
	}

	completed := true
	updated, err := s.Update(ctx, userID, id, UpdateParams{Completed: &completed})
	if err != nil {
		return nil, false, err
	}
	return updated, false, nil
}

// Delete removes a task owned by userID
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	err := s.store.DeleteTask(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}

	s.logger.Info("task deleted", "task_id", id, "user_id", userID)
	return nil
}
