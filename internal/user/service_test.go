// ABOUTME: Tests for user registration and authentication
// ABOUTME: Covers validation, duplicate emails, and credential checks

package user

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessellated/taskchat/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(st)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Alice@Example.com", "correct horse", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice", u.DisplayName)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	got, err := svc.Authenticate(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// Email lookup is case-insensitive
	got, err = svc.Authenticate(ctx, "ALICE@example.COM", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"empty email", "", "a valid password", ErrInvalidEmail},
		{"not an email", "not-an-email", "a valid password", ErrInvalidEmail},
		{"short password", "alice@example.com", "short", ErrInvalidPassword},
		{"long password", "alice@example.com", strings.Repeat("x", 73), ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.password, "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "password123", "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ALICE@example.com", "password456", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate_Failures(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "password123", "")
	require.NoError(t, err)

	// Wrong password and unknown email return the same error
	_, err = svc.Authenticate(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
