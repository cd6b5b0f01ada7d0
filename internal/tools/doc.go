// ABOUTME: Package documentation for the tools package
// ABOUTME: Describes the registry, outcome envelope, and the two executors

// Package tools defines the fixed set of todo tools the model can call
// and the executors that run them.
//
// The registry holds five tools: add_task, list_tasks, complete_task,
// delete_task, update_task. Their schemas are static; argument
// validation happens here so both executors reject the same inputs the
// same way. Malformed argument JSON from the model is treated as an
// empty object, which turns parse failures into ordinary missing-field
// schema errors.
//
// Every call produces an Outcome, a {success, data | error} envelope.
// Tool failures of any kind — bad arguments, missing tasks, storage
// errors — are unsuccessful Outcomes fed back to the model; only
// transport breakage (a dead subprocess, a cancelled context) surfaces
// as a Go error.
//
// Two executors exist: LocalExecutor runs tools in-process against the
// task service, and SubprocessExecutor forwards them to a tool server
// child process over newline-delimited JSON on stdin/stdout.
package tools
