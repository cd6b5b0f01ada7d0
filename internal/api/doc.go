// ABOUTME: Package documentation for the api package
// ABOUTME: Describes the HTTP surface and error mapping

// Package api exposes the HTTP surface: auth (register, login, refresh,
// me), todo CRUD, and the chat endpoint that drives the model/tool loop.
// Everything under /api except the auth entry points sits behind the
// JWT middleware.
//
// Domain errors map to statuses in one place (writeError): validation
// 400, bad credentials or tokens 401, foreign conversations 403,
// missing things 404, duplicate email 409, a down model provider 502.
package api
