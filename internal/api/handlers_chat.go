// ABOUTME: HTTP handlers for the chat endpoint and conversation history
// ABOUTME: One POST is one full model turn, tool calls included

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/tessellated/taskchat/internal/auth"
	"github.com/tessellated/taskchat/internal/chat"
)

type invocationPayload struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
	Result    json.RawMessage `json:"result"`
}

// invocationPayloads shapes executed tool calls for the response body.
// Arguments come from the model as a JSON string; anything unparseable
// is reported as an empty object, matching what the executor validated
// against.
func invocationPayloads(invocations []chat.Invocation) []invocationPayload {
	payloads := make([]invocationPayload, 0, len(invocations))
	for _, inv := range invocations {
		args := json.RawMessage(inv.Arguments)
		if !json.Valid(args) {
			args = json.RawMessage(`{}`)
		}
		result, err := json.Marshal(inv.Outcome)
		if err != nil {
			result = json.RawMessage(`{"success": false, "error": "unencodable tool outcome"}`)
		}
		payloads = append(payloads, invocationPayload{
			Tool:      inv.Tool,
			Arguments: args,
			Result:    result,
		})
	}
	return payloads
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	var req struct {
		Message        string `json:"message"`
		ConversationID *int64 `json:"conversation_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.ConversationID != nil && *req.ConversationID <= 0 {
		s.writeError(w, errBadRequest)
		return
	}

	result, err := s.chat.SendMessage(r.Context(), identity.UserID, req.ConversationID, req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": result.ConversationID,
		"message_id":      result.MessageID,
		"response":        result.Reply,
		"tool_calls":      invocationPayloads(result.Invocations),
	})
}

func (s *Server) handleConversationMessages(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	conversationID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || conversationID <= 0 {
		s.writeError(w, errBadRequest)
		return
	}

	messages, err := s.chat.History(r.Context(), identity.UserID, conversationID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	type messagePayload struct {
		ID        int64  `json:"id"`
		Role      string `json:"role"`
		Content   string `json:"content"`
		CreatedAt string `json:"created_at"`
	}

	payloads := make([]messagePayload, 0, len(messages))
	for _, msg := range messages {
		payloads = append(payloads, messagePayload{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": conversationID,
		"messages":        payloads,
	})
}
