// ABOUTME: HTTP handlers for registration, login, token refresh, and profile
// ABOUTME: Issues JWT pairs on register and login

package api

import (
	"net/http"
	"time"

	"github.com/tessellated/taskchat/internal/auth"
	"github.com/tessellated/taskchat/internal/store"
)

type userPayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toUserPayload(u *store.User) userPayload {
	return userPayload{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type authResponse struct {
	User   userPayload     `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	u, err := s.users.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		s.writeError(w, err)
		return
	}

	pair, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, authResponse{User: toUserPayload(u), Tokens: pair})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	u, err := s.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	pair, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, authResponse{User: toUserPayload(u), Tokens: pair})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	userID, err := s.tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// The account must still exist for the refresh to succeed
	if _, err := s.users.Get(r.Context(), userID); err != nil {
		s.writeError(w, err)
		return
	}

	pair, err := s.tokens.Issue(userID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	u, err := s.users.Get(r.Context(), identity.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toUserPayload(u))
}
