// ABOUTME: User account service handling registration and credential checks
// ABOUTME: Passwords are hashed with bcrypt; emails are normalized to lower case

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tessellated/taskchat/internal/store"
)

const (
	minPasswordLength = 8
	// bcrypt silently truncates beyond 72 bytes; reject instead
	maxPasswordLength = 72
)

var (
	// ErrEmailTaken indicates the email is already registered
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidEmail indicates a syntactically invalid email address
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidPassword indicates a password outside the length bounds
	ErrInvalidPassword = fmt.Errorf("password must be %d-%d characters", minPasswordLength, maxPasswordLength)
	// ErrInvalidCredentials indicates a failed login. Unknown email and
	// wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotFound indicates the user doesn't exist
	ErrNotFound = errors.New("user not found")
)

// Service manages user accounts
type Service struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a user service backed by the given store
func NewService(st store.Store) *Service {
	return &Service{
		store:  st,
		logger: slog.Default().With("component", "user"),
		now:    time.Now,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Register creates a new account with a bcrypt-hashed password
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*store.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &store.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
		CreatedAt:    s.now().UTC(),
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Authenticate verifies an email/password pair and returns the account
func (s *Service) Authenticate(ctx context.Context, email, password string) (*store.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		// Burn a hash comparison anyway so timing doesn't reveal
		// whether the email exists.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinval"), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// Get retrieves an account by ID
func (s *Service) Get(ctx context.Context, id string) (*store.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}
