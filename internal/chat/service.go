// ABOUTME: Conversation orchestration: persists transcripts and drives the model/tool loop
// ABOUTME: Enforces conversation ownership and the bounded tool iteration budget

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tessellated/taskchat/internal/llm"
	"github.com/tessellated/taskchat/internal/store"
	"github.com/tessellated/taskchat/internal/tools"
)

const (
	// maxToolIterations caps the model/tool round trips for one user
	// message. After the budget is spent the turn ends with whatever
	// text the model last produced.
	maxToolIterations = 5

	// toolTimeout bounds one batch of tool executions. Tools run under
	// a detached context so a cancelled request doesn't leave a tool
	// half-applied.
	toolTimeout = 30 * time.Second

	maxMessageLength = 10000
)

const systemPrompt = `You are a task management assistant. You help users manage their ` +
	`todo list through natural language conversation.

You have access to tools to manage tasks: add_task, list_tasks, complete_task, delete_task, update_task.

Guidelines:
- Be concise and helpful
- Confirm actions after completing them
- If a request is ambiguous, ask for clarification
- If a tool returns an error, explain it in friendly terms
- Only discuss task management topics`

var (
	// ErrConversationNotFound indicates the conversation ID doesn't exist
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrNotOwner indicates the conversation belongs to a different user
	ErrNotOwner = errors.New("conversation belongs to another user")
	// ErrEmptyMessage indicates a blank user message
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrMessageTooLong indicates the user message exceeds the length cap
	ErrMessageTooLong = fmt.Errorf("message must be at most %d characters", maxMessageLength)
)

// Invocation records one executed tool call for the caller's benefit
type Invocation struct {
	CallID    string        `json:"call_id"`
	Tool      string        `json:"tool"`
	Arguments string        `json:"arguments"`
	Outcome   tools.Outcome `json:"outcome"`
}

// Result is the outcome of one user turn. MessageID identifies the
// persisted assistant message.
type Result struct {
	ConversationID int64
	MessageID      int64
	Reply          string
	Invocations    []Invocation
}

// Service orchestrates conversations: it owns the transcript, the model
// loop, and tool dispatch
type Service struct {
	store    store.Store
	client   llm.Client
	registry *tools.Registry
	executor tools.Executor
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a chat service
func NewService(st store.Store, client llm.Client, registry *tools.Registry, executor tools.Executor) *Service {
	return &Service{
		store:    st,
		client:   client,
		registry: registry,
		executor: executor,
		logger:   slog.Default().With("component", "chat"),
		now:      time.Now,
	}
}

// SendMessage runs one user turn. A nil conversationID starts a new
// conversation; otherwise the referenced conversation must exist and
// belong to userID.
//
// The user message is persisted before the model is invoked, so a turn
// that dies on a model failure keeps the user's side of the exchange.
// The assistant message is only written once the loop produces a reply.
func (s *Service) SendMessage(ctx context.Context, userID string, conversationID *int64, content string) (*Result, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if len(content) > maxMessageLength {
		return nil, ErrMessageTooLong
	}

	var (
		convID  int64
		history []*store.Message
	)
	if conversationID != nil {
		conv, err := s.store.GetConversation(ctx, *conversationID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("loading conversation: %w", err)
		}
		if conv.UserID != userID {
			return nil, ErrNotOwner
		}
		convID = conv.ID

		history, err = s.store.ListMessages(ctx, conv.ID)
		if err != nil {
			return nil, fmt.Errorf("loading messages: %w", err)
		}
	} else {
		conv, err := s.store.CreateConversation(ctx, userID, s.now().UTC())
		if err != nil {
			return nil, fmt.Errorf("creating conversation: %w", err)
		}
		convID = conv.ID
	}

	if _, err := s.appendMessage(ctx, convID, store.RoleUser, content); err != nil {
		return nil, fmt.Errorf("saving user message: %w", err)
	}

	transcript := s.buildTranscript(history, content)

	reply, invocations, err := s.runLoop(ctx, userID, transcript)
	if err != nil {
		return nil, err
	}

	assistantMsg, err := s.appendMessage(ctx, convID, store.RoleAssistant, reply)
	if err != nil {
		return nil, fmt.Errorf("saving assistant message: %w", err)
	}
	if err := s.store.TouchConversation(ctx, convID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("touching conversation: %w", err)
	}

	return &Result{
		ConversationID: convID,
		MessageID:      assistantMsg.ID,
		Reply:          reply,
		Invocations:    invocations,
	}, nil
}

// buildTranscript assembles the model input: system prompt, stored
// history, then the new user message
func (s *Service) buildTranscript(history []*store.Message, content string) []llm.Message {
	transcript := make([]llm.Message, 0, len(history)+2)
	transcript = append(transcript, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, msg := range history {
		transcript = append(transcript, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	transcript = append(transcript, llm.Message{Role: llm.RoleUser, Content: content})
	return transcript
}

// runLoop drives the model until it answers in text or the iteration
// budget runs out. Each round: one completion, then one batch of tool
// executions whose outcomes are fed back as tool messages. A model that
// never stops asking for tools gets exactly maxToolIterations round
// trips; the turn then ends with whatever text it last produced, which
// may be empty.
func (s *Service) runLoop(ctx context.Context, userID string, transcript []llm.Message) (string, []Invocation, error) {
	schemas := s.toolSchemas()
	var invocations []Invocation
	var lastText string

	for iteration := 0; iteration < maxToolIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		completion, err := s.client.Complete(ctx, transcript, schemas)
		if err != nil {
			return "", nil, fmt.Errorf("completing turn: %w", err)
		}

		if len(completion.ToolCalls) == 0 {
			return completion.Content, invocations, nil
		}

		// Text produced alongside tool calls is the fallback reply if
		// the budget runs out before the model finishes.
		if completion.Content != "" {
			lastText = completion.Content
		}

		s.logger.Debug("model requested tools",
			"iteration", iteration+1,
			"count", len(completion.ToolCalls),
		)

		transcript = append(transcript, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		results, err := s.executeBatch(userID, completion.ToolCalls)
		if err != nil {
			return "", nil, err
		}
		invocations = append(invocations, results...)

		for _, inv := range results {
			payload, merr := json.Marshal(inv.Outcome)
			if merr != nil {
				payload = []byte(`{"success": false, "error": "unencodable tool outcome"}`)
			}
			transcript = append(transcript, llm.Message{
				Role:       llm.RoleTool,
				Content:    string(payload),
				ToolCallID: inv.CallID,
			})
		}
	}

	s.logger.Warn("tool iteration budget exhausted", "user_id", userID)
	return lastText, invocations, nil
}

// executeBatch runs one round of tool calls sequentially. Each call
// gets its own detached timeout context so an abandoned HTTP request
// can't interrupt a tool mid-write and a slow call can't starve the
// rest of the batch.
func (s *Service) executeBatch(userID string, calls []llm.ToolCall) ([]Invocation, error) {
	results := make([]Invocation, 0, len(calls))
	for _, call := range calls {
		outcome, err := s.callWithTimeout(userID, call)
		if err != nil {
			// The executor could not be reached at all, so the model
			// never gets an answer for this call and the turn cannot
			// continue coherently.
			return nil, fmt.Errorf("executing %s: %w", call.Name, err)
		}

		s.logger.Info("tool call",
			"tool", call.Name,
			"user_id", userID,
			"success", outcome.Success,
		)

		results = append(results, Invocation{
			CallID:    call.ID,
			Tool:      call.Name,
			Arguments: call.Arguments,
			Outcome:   outcome,
		})
	}
	return results, nil
}

func (s *Service) callWithTimeout(userID string, call llm.ToolCall) (tools.Outcome, error) {
	execCtx, cancel := context.WithTimeout(context.Background(), toolTimeout)
	defer cancel()
	return s.executor.Call(execCtx, userID, call.Name, call.Arguments)
}

// appendMessage stamps and persists one message, returning it with its
// assigned ID
func (s *Service) appendMessage(ctx context.Context, convID int64, role, content string) (*store.Message, error) {
	msg := &store.Message{
		ConversationID: convID,
		Role:           role,
		Content:        content,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns the stored transcript of a conversation owned by userID
func (s *Service) History(ctx context.Context, userID string, conversationID int64) ([]*store.Message, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	if conv.UserID != userID {
		return nil, ErrNotOwner
	}

	messages, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	return messages, nil
}

func (s *Service) toolSchemas() []llm.ToolSchema {
	defs := s.registry.Definitions()
	schemas := make([]llm.ToolSchema, len(defs))
	for i, def := range defs {
		schemas[i] = llm.ToolSchema{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
		}
	}
	return schemas
}
