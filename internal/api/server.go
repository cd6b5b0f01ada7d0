// ABOUTME: HTTP API server wiring routes, middleware, and JSON helpers
// ABOUTME: Maps domain errors onto HTTP status codes in one place

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tessellated/taskchat/internal/auth"
	"github.com/tessellated/taskchat/internal/chat"
	"github.com/tessellated/taskchat/internal/llm"
	"github.com/tessellated/taskchat/internal/task"
	"github.com/tessellated/taskchat/internal/user"
)

// Server handles the HTTP API
type Server struct {
	users  *user.Service
	tasks  *task.Service
	chat   *chat.Service
	tokens *auth.Tokens
	logger *slog.Logger
}

// New creates an API server over the given services
func New(users *user.Service, tasks *task.Service, chatSvc *chat.Service, tokens *auth.Tokens) *Server {
	return &Server{
		users:  users,
		tasks:  tasks,
		chat:   chatSvc,
		tokens: tokens,
		logger: slog.Default().With("component", "api"),
	}
}

// Handler builds the full route table and returns the root handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)

	// Authenticated routes
	authed := http.NewServeMux()
	authed.HandleFunc("GET /api/auth/me", s.handleMe)

	authed.HandleFunc("GET /api/todos", s.handleListTodos)
	authed.HandleFunc("POST /api/todos", s.handleCreateTodo)
	authed.HandleFunc("GET /api/todos/{id}", s.handleGetTodo)
	authed.HandleFunc("PUT /api/todos/{id}", s.handleUpdateTodo)
	authed.HandleFunc("DELETE /api/todos/{id}", s.handleDeleteTodo)
	authed.HandleFunc("PATCH /api/todos/{id}/toggle", s.handleToggleTodo)

	authed.HandleFunc("POST /api/chat", s.handleChat)
	authed.HandleFunc("GET /api/conversations/{id}/messages", s.handleConversationMessages)

	mux.Handle("/api/", auth.Middleware(s.tokens)(authed))

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

// writeError maps a domain error onto an HTTP status and a JSON body
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrInvalidPassword),
		errors.Is(err, task.ErrInvalidTitle),
		errors.Is(err, task.ErrInvalidDescription),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrMessageTooLong),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrWrongType):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, user.ErrEmailTaken):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, chat.ErrNotOwner):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, task.ErrNotFound),
		errors.Is(err, chat.ErrConversationNotFound),
		errors.Is(err, user.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, llm.ErrUnavailable):
		status = http.StatusBadGateway
		message = "model provider unavailable"
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}

	s.writeJSON(w, status, map[string]string{"error": message})
}

// errBadRequest tags request decoding failures for writeError
var errBadRequest = errors.New("bad request")

// decodeBody decodes a JSON request body into v
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequest
	}
	return nil
}
