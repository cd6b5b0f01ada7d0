// ABOUTME: Package documentation for the user package
// ABOUTME: Describes account registration and authentication

// Package user manages accounts: registration with bcrypt password
// hashing and credential verification for login. Login failures never
// reveal whether the email exists.
package user
