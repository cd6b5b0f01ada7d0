// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user/task/conversation/message persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeFormat is the timestamp encoding used in all tables. Nanosecond
// precision keeps message ordering stable within a single turn, where the
// user and assistant messages are often written in the same second.
const timeFormat = time.RFC3339Nano

// defaultTaskLimit bounds ListTasks when the caller does not set one.
const defaultTaskLimit = 100

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			display_name  TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

		CREATE TABLE IF NOT EXISTS tasks (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id),
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			completed   INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_user_completed ON tasks(user_id, completed);

		CREATE TABLE IF NOT EXISTS conversations (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL REFERENCES users(id),
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id);

		CREATE TABLE IF NOT EXISTS messages (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL REFERENCES conversations(id),
			role            TEXT NOT NULL,
			content         TEXT NOT NULL,
			created_at      TEXT NOT NULL,

			CHECK (role IN ('user', 'assistant'))
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation_created
			ON messages(conversation_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// CreateUser inserts a new user.
// Returns ErrDuplicateEmail if the email is already registered.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, display_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Debug("created user", "id", user.ID)
	return nil
}

// GetUser retrieves a user by ID.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, email, password_hash, display_name, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email address.
// Returns ErrNotFound if no account uses the email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password_hash, display_name, created_at
		FROM users
		WHERE email = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*User, error) {
	var user User
	var createdAtStr string

	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	user.CreatedAt, err = time.Parse(timeFormat, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &user, nil
}

// CreateTask inserts a new task
func (s *SQLiteStore) CreateTask(ctx context.Context, task *Task) error {
	query := `
		INSERT INTO tasks (id, user_id, title, description, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		boolToInt(task.Completed),
		task.CreatedAt.UTC().Format(timeFormat),
		task.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}

	s.logger.Debug("created task", "id", task.ID, "user_id", task.UserID)
	return nil
}

// GetTask retrieves a task by ID scoped to its owner.
// Returns ErrNotFound if the task doesn't exist or belongs to a different user.
func (s *SQLiteStore) GetTask(ctx context.Context, userID, id string) (*Task, error) {
	query := `
		SELECT id, user_id, title, description, completed, created_at, updated_at
		FROM tasks
		WHERE id = ? AND user_id = ?
	`

	row := s.db.QueryRowContext(ctx, query, id, userID)
	task, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying task: %w", err)
	}
	return task, nil
}

// scanFunc abstracts sql.Row.Scan and sql.Rows.Scan
type scanFunc func(dest ...any) error

func scanTask(scan scanFunc) (*Task, error) {
	var task Task
	var completed int
	var createdAtStr, updatedAtStr string

	if err := scan(&task.ID, &task.UserID, &task.Title, &task.Description, &completed, &createdAtStr, &updatedAtStr); err != nil {
		return nil, err
	}

	task.Completed = completed != 0

	var err error
	task.CreatedAt, err = time.Parse(timeFormat, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	task.UpdatedAt, err = time.Parse(timeFormat, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &task, nil
}

// ListTasks retrieves tasks for a user ordered by creation time, oldest first.
func (s *SQLiteStore) ListTasks(ctx context.Context, userID string, filter TaskFilter) ([]*Task, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultTaskLimit
	}

	query := `
		SELECT id, user_id, title, description, completed, created_at, updated_at
		FROM tasks
		WHERE user_id = ?
	`
	args := []any{userID}

	if filter.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, boolToInt(*filter.Completed))
	}

	query += ` ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task rows: %w", err)
	}

	return tasks, nil
}

// CountTasks returns the number of tasks matching the filter, ignoring pagination.
func (s *SQLiteStore) CountTasks(ctx context.Context, userID string, filter TaskFilter) (int, error) {
	query := `SELECT COUNT(*) FROM tasks WHERE user_id = ?`
	args := []any{userID}

	if filter.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, boolToInt(*filter.Completed))
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return count, nil
}

// UpdateTask updates an existing task scoped to its owner.
// Returns ErrNotFound if the task doesn't exist or belongs to a different user.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task *Task) error {
	query := `
		UPDATE tasks
		SET title = ?, description = ?, completed = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		boolToInt(task.Completed),
		task.UpdatedAt.UTC().Format(timeFormat),
		task.ID,
		task.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("updated task", "id", task.ID)
	return nil
}

// DeleteTask removes a task scoped to its owner.
// Returns ErrNotFound if the task doesn't exist or belongs to a different user.
func (s *SQLiteStore) DeleteTask(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted task", "id", id)
	return nil
}

// CreateConversation inserts a new conversation owned by the given user
// and returns it with its assigned ID.
func (s *SQLiteStore) CreateConversation(ctx context.Context, userID string, now time.Time) (*Conversation, error) {
	ts := now.UTC().Format(timeFormat)
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (user_id, created_at, updated_at) VALUES (?, ?, ?)`,
		userID, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting conversation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting conversation id: %w", err)
	}

	s.logger.Debug("created conversation", "id", id, "user_id", userID)
	return &Conversation{
		ID:        id,
		UserID:    userID,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// GetConversation retrieves a conversation by ID.
// Returns ErrNotFound if the conversation doesn't exist.
func (s *SQLiteStore) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	query := `
		SELECT id, user_id, created_at, updated_at
		FROM conversations
		WHERE id = ?
	`

	var conv Conversation
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(&conv.ID, &conv.UserID, &createdAtStr, &updatedAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	conv.CreatedAt, err = time.Parse(timeFormat, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	conv.UpdatedAt, err = time.Parse(timeFormat, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &conv, nil
}

// TouchConversation updates the conversation's updated_at timestamp.
// Returns ErrNotFound if the conversation doesn't exist.
func (s *SQLiteStore) TouchConversation(ctx context.Context, id int64, now time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		now.UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage saves a message and fills in its assigned ID.
// The insert is committed before returning; messages are never rewritten.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *Message) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		msg.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	msg.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting message id: %w", err)
	}

	s.logger.Debug("appended message", "id", msg.ID, "conversation_id", msg.ConversationID, "role", msg.Role)
	return nil
}

// ListMessages retrieves all messages for a conversation in chronological
// order. Ties on created_at fall back to insertion order.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID int64) ([]*Message, error) {
	query := `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		var createdAtStr string

		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}

		msg.CreatedAt, err = time.Parse(timeFormat, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing message created_at: %w", err)
		}

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
