// ABOUTME: HTTP handlers for the todo CRUD endpoints
// ABOUTME: All operations act on the authenticated user's own tasks

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tessellated/taskchat/internal/auth"
	"github.com/tessellated/taskchat/internal/store"
	"github.com/tessellated/taskchat/internal/task"
)

type todoPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toTodoPayload(t *store.Task) todoPayload {
	return todoPayload{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())
	query := r.URL.Query()

	params := task.ListParams{}
	if v := query.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, errBadRequest)
			return
		}
		params.Completed = &completed
	}
	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			s.writeError(w, errBadRequest)
			return
		}
		params.Offset = offset
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			s.writeError(w, errBadRequest)
			return
		}
		params.Limit = limit
	}

	page, err := s.tasks.List(r.Context(), identity.UserID, params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	todos := make([]todoPayload, 0, len(page.Tasks))
	for _, t := range page.Tasks {
		todos = append(todos, toTodoPayload(t))
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"todos": todos,
		"total": page.Total,
	})
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.tasks.Create(r.Context(), identity.UserID, task.CreateParams{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toTodoPayload(created))
}

func (s *Server) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	t, err := s.tasks.Get(r.Context(), identity.UserID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toTodoPayload(t))
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Completed   *bool   `json:"completed"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	updated, err := s.tasks.Update(r.Context(), identity.UserID, r.PathValue("id"), task.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toTodoPayload(updated))
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	if err := s.tasks.Delete(r.Context(), identity.UserID, r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleTodo(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	toggled, err := s.tasks.ToggleCompletion(r.Context(), identity.UserID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toTodoPayload(toggled))
}
