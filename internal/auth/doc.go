// ABOUTME: Package documentation for the auth package
// ABOUTME: Describes token issuing, verification, and identity propagation

// Package auth handles API authentication. Tokens issues HS256 signed
// JWT pairs: a short-lived access token for requests and a long-lived
// refresh token for renewal, distinguished by a "type" claim so one can
// never stand in for the other.
//
// Middleware validates the Authorization bearer token and attaches an
// Identity to the request context; handlers read it back with
// FromContext.
package auth
