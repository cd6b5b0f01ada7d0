// ABOUTME: Tests for the conversation orchestration loop
// ABOUTME: Uses a scripted model client against a real store and executor

package chat

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessellated/taskchat/internal/llm"
	"github.com/tessellated/taskchat/internal/store"
	"github.com/tessellated/taskchat/internal/task"
	"github.com/tessellated/taskchat/internal/tools"
)

// scriptedClient replays a fixed sequence of completions and records
// every transcript it was sent
type scriptedClient struct {
	completions []*llm.Completion
	err         error
	calls       int
	transcripts [][]llm.Message
}

func (c *scriptedClient) Complete(_ context.Context, messages []llm.Message, _ []llm.ToolSchema) (*llm.Completion, error) {
	c.transcripts = append(c.transcripts, messages)
	if c.err != nil {
		return nil, c.err
	}
	if c.calls >= len(c.completions) {
		return &llm.Completion{Content: "done", FinishReason: "stop"}, nil
	}
	completion := c.completions[c.calls]
	c.calls++
	return completion, nil
}

func text(content string) *llm.Completion {
	return &llm.Completion{Content: content, FinishReason: "stop"}
}

func toolCall(id, name, arguments string) *llm.Completion {
	return &llm.Completion{
		FinishReason: "tool_calls",
		ToolCalls:    []llm.ToolCall{{ID: id, Name: name, Arguments: arguments}},
	}
}

type fixture struct {
	svc    *Service
	store  *store.SQLiteStore
	client *scriptedClient
	userID string
}

func newFixture(t *testing.T, client *scriptedClient) *fixture {
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

	registry := tools.NewRegistry()
	executor := tools.NewLocalExecutor(registry, task.NewService(st))

	return &fixture{
		svc:    NewService(st, client, registry, executor),
		store:  st,
		client: client,
		userID: user.ID,
	}
}

func TestSendMessage_PlainReply(t *testing.T) {
	f := newFixture(t, &scriptedClient{completions: []*llm.Completion{
		text("Hello! What would you like to do?"),
	}})

	result, err := f.svc.SendMessage(context.Background(), f.userID, nil, "hi")
	require.NoError(t, err)
	assert.Positive(t, result.ConversationID)
	assert.Equal(t, "Hello! What would you like to do?", result.Reply)
	assert.Empty(t, result.Invocations)

	messages, err := f.store.ListMessages(context.Background(), result.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, store.RoleUser, messages[0].Role)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, store.RoleAssistant, messages[1].Role)
	assert.Equal(t, messages[1].ID, result.MessageID)
}

func TestSendMessage_ToolRoundTrip(t *testing.T) {
	f := newFixture(t, &scriptedClient{completions: []*llm.Completion{
		toolCall("call-1", tools.ToolAddTask, `{"title": "buy milk"}`),
		text("I've added \"buy milk\" to your list."),
	}})

	result, err := f.svc.SendMessage(context.Background(), f.userID, nil, "add a task to buy milk")
	require.NoError(t, err)
	assert.Equal(t, "I've added \"buy milk\" to your list.", result.Reply)

	require.Len(t, result.Invocations, 1)
	inv := result.Invocations[0]
	assert.Equal(t, "call-1", inv.CallID)
	assert.Equal(t, tools.ToolAddTask, inv.Tool)
	assert.True(t, inv.Outcome.Success)

	// The tool actually ran
	taskSvc := task.NewService(f.store)
	page, err := taskSvc.List(context.Background(), f.userID, task.ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, "buy milk", page.Tasks[0].Title)

	// Second completion saw the assistant tool call and its outcome
	require.Len(t, f.client.transcripts, 2)
	second := f.client.transcripts[1]
	last := second[len(second)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Equal(t, "call-1", last.ToolCallID)
	var outcome tools.Outcome
	require.NoError(t, json.Unmarshal([]byte(last.Content), &outcome))
	assert.True(t, outcome.Success)
}

// deadTransportExecutor answers every call the way the subprocess
// executor does after its child crashes or times out
type deadTransportExecutor struct {
	calls int
}

func (e *deadTransportExecutor) Call(_ context.Context, _, tool, _ string) (tools.Outcome, error) {
	e.calls++
	return tools.Fail("internal error executing " + tool), nil
}

func TestSendMessage_ToolTransportFailureDoesNotAbortTurn(t *testing.T) {
	client := &scriptedClient{completions: []*llm.Completion{
		toolCall("call-1", tools.ToolListTasks, `{}`),
		text("I couldn't reach your task list just now."),
	}}
	f := newFixture(t, client)

	executor := &deadTransportExecutor{}
	f.svc.executor = executor

	result, err := f.svc.SendMessage(context.Background(), f.userID, nil, "what's on my list?")
	require.NoError(t, err)
	assert.Equal(t, "I couldn't reach your task list just now.", result.Reply)
	assert.Equal(t, 1, executor.calls)

	require.Len(t, result.Invocations, 1)
	assert.False(t, result.Invocations[0].Outcome.Success)

	// The model saw the failure as a tool result and the full turn was
	// persisted.
	second := f.client.transcripts[1]
	last := second[len(second)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Contains(t, last.Content, "internal error executing "+tools.ToolListTasks)

	messages, err := f.store.ListMessages(context.Background(), result.ConversationID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestSendMessage_SchemaErrorFedBackToModel(t *testing.T) {
	f := newFixture(t, &scriptedClient{completions: []*llm.Completion{
		toolCall("call-1", tools.ToolAddTask, `{"description": "no title"}`),
		text("I need a title for the task."),
	}})

	result, err := f.svc.SendMessage(context.Background(), f.userID, nil, "add a task")
	require.NoError(t, err)
	assert.Equal(t, "I need a title for the task.", result.Reply)

	require.Len(t, result.Invocations, 1)
	assert.False(t, result.Invocations[0].Outcome.Success)
	assert.Contains(t, result.Invocations[0].Outcome.Error, "title")
}

func TestSendMessage_IterationBudget(t *testing.T) {
	// The model asks for tools forever; every scripted completion is a
	// tool call.
	var completions []*llm.Completion
	for i := 0; i < 10; i++ {
		completions = append(completions, toolCall("call-n", tools.ToolListTasks, `{}`))
	}
	client := &scriptedClient{completions: completions}
	f := newFixture(t, client)

	result, err := f.svc.SendMessage(context.Background(), f.userID, nil, "keep listing")
	require.NoError(t, err)

	// Exactly five model round trips, no more. The model never produced
	// text, so the reply is empty.
	assert.Len(t, result.Invocations, 5)
	assert.Equal(t, 5, client.calls)
	assert.Empty(t, result.Reply)
}

func TestSendMessage_IterationBudgetKeepsLastText(t *testing.T) {
	var completions []*llm.Completion
	for i := 0; i < 10; i++ {
		completions = append(completions, &llm.Completion{
			Content:      "still working on it",
			FinishReason: "tool_calls",
			ToolCalls:    []llm.ToolCall{{ID: "call-n", Name: tools.ToolListTasks, Arguments: `{}`}},
		})
	}
	f := newFixture(t, &scriptedClient{completions: completions})

	result, err := f.svc.SendMessage(context.Background(), f.userID, nil, "keep listing")
	require.NoError(t, err)
	assert.Equal(t, "still working on it", result.Reply)
}

func TestSendMessage_ModelFailureKeepsOnlyUserMessage(t *testing.T) {
	f := newFixture(t, &scriptedClient{err: llm.ErrUnavailable})

	_, err := f.svc.SendMessage(context.Background(), f.userID, nil, "hello")
	require.ErrorIs(t, err, llm.ErrUnavailable)

	// The conversation and the inbound message survive; no assistant
	// message was written.
	messages, err := f.store.ListMessages(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, store.RoleUser, messages[0].Role)
	assert.Equal(t, "hello", messages[0].Content)
}

func TestSendMessage_ModelFailureLeavesNoPartialAssistantReply(t *testing.T) {
	f := newFixture(t, &scriptedClient{completions: []*llm.Completion{
		text("first reply"),
	}})

	result, err := f.svc.SendMessage(context.Background(), f.userID, nil, "first")
	require.NoError(t, err)

	f.client.err = llm.ErrUnavailable
	_, err = f.svc.SendMessage(context.Background(), f.userID, &result.ConversationID, "second")
	require.ErrorIs(t, err, llm.ErrUnavailable)

	messages, err := f.store.ListMessages(context.Background(), result.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, store.RoleUser, messages[2].Role)
	assert.Equal(t, "second", messages[2].Content)
}

func TestSendMessage_ContinuesConversation(t *testing.T) {
	f := newFixture(t, &scriptedClient{completions: []*llm.Completion{
		text("first reply"),
		text("second reply"),
	}})
	ctx := context.Background()

	first, err := f.svc.SendMessage(ctx, f.userID, nil, "first message")
	require.NoError(t, err)

	second, err := f.svc.SendMessage(ctx, f.userID, &first.ConversationID, "second message")
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	// The second turn's transcript includes the stored first exchange
	require.Len(t, f.client.transcripts, 2)
	transcript := f.client.transcripts[1]
	require.Len(t, transcript, 4) // system, first user, first assistant, second user
	assert.Equal(t, llm.RoleSystem, transcript[0].Role)
	assert.Equal(t, "first message", transcript[1].Content)
	assert.Equal(t, "first reply", transcript[2].Content)
	assert.Equal(t, "second message", transcript[3].Content)

	messages, err := f.store.ListMessages(ctx, first.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	for i, want := range []string{store.RoleUser, store.RoleAssistant, store.RoleUser, store.RoleAssistant} {
		assert.Equal(t, want, messages[i].Role)
	}
}

func TestSendMessage_Ownership(t *testing.T) {
	f := newFixture(t, &scriptedClient{completions: []*llm.Completion{
		text("alice's reply"),
	}})
	ctx := context.Background()

	result, err := f.svc.SendMessage(ctx, f.userID, nil, "alice's message")
	require.NoError(t, err)

	bob := &store.User{
		ID:           uuid.New().String(),
		Email:        "bob@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.store.CreateUser(ctx, bob))

	_, err = f.svc.SendMessage(ctx, bob.ID, &result.ConversationID, "let me in")
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = f.svc.History(ctx, bob.ID, result.ConversationID)
	assert.ErrorIs(t, err, ErrNotOwner)

	missing := result.ConversationID + 100
	_, err = f.svc.SendMessage(ctx, f.userID, &missing, "hello?")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestSendMessage_Validation(t *testing.T) {
	f := newFixture(t, &scriptedClient{})
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, f.userID, nil, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = f.svc.SendMessage(ctx, f.userID, nil, strings.Repeat("x", 10001))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	// Nothing reached the model
	assert.Zero(t, f.client.calls)
}

func TestHistory(t *testing.T) {
	f := newFixture(t, &scriptedClient{completions: []*llm.Completion{
		text("reply"),
	}})
	ctx := context.Background()

	result, err := f.svc.SendMessage(ctx, f.userID, nil, "hello")
	require.NoError(t, err)

	messages, err := f.svc.History(ctx, f.userID, result.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[0].Content)
	assert.Equal(t, "reply", messages[1].Content)

	_, err = f.svc.History(ctx, f.userID, result.ConversationID+99)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
