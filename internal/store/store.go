// ABOUTME: Store interface and data types for taskchat persistence
// ABOUTME: Defines User, Task, Conversation, Message structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when registering an email that is already taken
var ErrDuplicateEmail = errors.New("email already registered")

// User represents a registered account
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// Task represents a todo item owned by a single user
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Conversation represents a chat session owned by a single user.
// Ownership never changes for the lifetime of the conversation.
type Conversation struct {
	ID        int64
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role constants for message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message within a conversation.
// Messages are append-only: never mutated or deleted.
type Message struct {
	ID             int64
	ConversationID int64
	Role           string // "user" or "assistant"
	Content        string
	CreatedAt      time.Time
}

// TaskFilter narrows ListTasks results
type TaskFilter struct {
	// Completed filters by completion state when non-nil
	Completed *bool
	Offset    int
	Limit     int // <=0 means the default limit
}

// Store defines the interface for taskchat persistence
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Tasks
	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, userID, id string) (*Task, error)
	ListTasks(ctx context.Context, userID string, filter TaskFilter) ([]*Task, error)
	CountTasks(ctx context.Context, userID string, filter TaskFilter) (int, error)
	UpdateTask(ctx context.Context, task *Task) error
	DeleteTask(ctx context.Context, userID, id string) error

	// Conversations
	CreateConversation(ctx context.Context, userID string, now time.Time) (*Conversation, error)
	GetConversation(ctx context.Context, id int64) (*Conversation, error)
	TouchConversation(ctx context.Context, id int64, now time.Time) error

	// Messages
	AppendMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, conversationID int64) ([]*Message, error)

	// Close releases any resources held by the store
	Close() error
}
