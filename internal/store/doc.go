// ABOUTME: Package documentation for the store package
// ABOUTME: Describes the persistence layer and its SQLite implementation

// Package store provides persistent storage for taskchat.
//
// The Store interface covers users, tasks, conversations, and messages.
// SQLiteStore is the production implementation, using a single SQLite
// database file with WAL mode enabled. All timestamps are stored as
// RFC 3339 text with nanosecond precision.
//
// Ownership is enforced at this layer for tasks: task reads, updates,
// and deletes are always scoped to a user ID, so a task belonging to
// another user is indistinguishable from a missing one. Conversations
// carry their owner but are fetched by ID alone; callers check ownership
// so they can distinguish "not found" from "not yours".
package store
