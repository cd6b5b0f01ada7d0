// ABOUTME: Package documentation for the task package
// ABOUTME: Describes the owner-scoped task service

// Package task implements the todo-list domain logic shared by the REST
// API and the model-facing tools. Every operation takes the acting
// user's ID and only ever touches that user's tasks; a task owned by
// someone else surfaces as ErrNotFound.
//
// Validation lives here rather than in the transports: titles are
// trimmed and must be 1-255 characters, descriptions at most 1000.
package task
