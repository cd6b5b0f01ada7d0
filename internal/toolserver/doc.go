// ABOUTME: Package documentation for the toolserver package
// ABOUTME: Describes the stdio-serving half of the subprocess tool transport

// Package toolserver implements the child-process side of the
// subprocess tool transport. It reads newline-delimited JSON requests
// from stdin, runs them through an in-process tool executor, and writes
// one JSON response line per request to stdout. Stdout belongs to the
// protocol; all logging goes to stderr.
package toolserver
