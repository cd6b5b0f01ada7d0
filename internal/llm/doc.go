// ABOUTME: Package documentation for the llm package
// ABOUTME: Describes the chat completion client abstraction

// Package llm abstracts the chat model behind a small Client interface:
// a transcript plus tool schemas in, a completion out. The only
// production implementation wraps the OpenAI SDK and works against any
// OpenAI-compatible endpoint. Tests substitute scripted clients.
package llm
