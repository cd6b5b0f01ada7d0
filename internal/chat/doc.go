// ABOUTME: Package documentation for the chat package
// ABOUTME: Describes the conversation turn lifecycle and its guarantees

// Package chat drives conversations between a user, the model, and the
// todo tools. One SendMessage call is one turn: load the transcript,
// loop the model against the tool executor until it answers in text
// (bounded at five tool rounds), then persist the user and assistant
// messages.
//
// Persistence is deliberately late. Tool side effects land as the loop
// runs, but no messages are written until the model has produced a
// final reply, so a turn that fails on the provider leaves the
// transcript untouched. Tool batches run under a detached timeout
// context: cancelling the inbound request never interrupts a tool
// mid-write.
package chat
