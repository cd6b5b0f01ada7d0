// ABOUTME: JWT issuing and verification for API authentication
// ABOUTME: Uses HS256 signing with separate access and refresh token lifetimes

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
	ErrWrongType    = errors.New("wrong token type")
)

// Token type claim values
const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// TokenPair is an access token plus the refresh token used to renew it.
// ExpiresIn is the access token lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Tokens issues and verifies HS256 signed JWTs. Access tokens carry
// "type":"access", refresh tokens "type":"refresh"; the two are never
// interchangeable.
type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokens creates a token issuer/verifier with the given secret and lifetimes
func NewTokens(secret []byte, accessTTL, refreshTTL time.Duration) *Tokens {
	return &Tokens{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue creates a fresh access/refresh token pair for the given user
func (t *Tokens) Issue(userID string) (*TokenPair, error) {
	access, err := t.sign(userID, typeAccess, t.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refresh, err := t.sign(userID, typeRefresh, t.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(t.accessTTL.Seconds()),
	}, nil
}

func (t *Tokens) sign(userID, tokenType string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"type": tokenType,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// VerifyAccess validates an access token and returns the user ID from
// its "sub" claim
func (t *Tokens) VerifyAccess(tokenString string) (string, error) {
	return t.verify(tokenString, typeAccess)
}

// VerifyRefresh validates a refresh token and returns the user ID from
// its "sub" claim. Access tokens are rejected here so a leaked short-lived
// token can't be used to mint new credentials.
func (t *Tokens) VerifyRefresh(tokenString string) (string, error) {
	return t.verify(tokenString, typeRefresh)
}

func (t *Tokens) verify(tokenString, wantType string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return t.now() }))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	tokenType, _ := claims["type"].(string)
	if tokenType != wantType {
		return "", fmt.Errorf("%w: got %q, want %q", ErrWrongType, tokenType, wantType)
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	return sub, nil
}
