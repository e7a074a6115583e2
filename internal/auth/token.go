// Package auth implements OAuth2 client-credentials authentication for the
// Sellsy API.
package auth

import (
	"context"
	"time"
)

// expiryBuffer is subtracted from the reported lifetime so a token is
// never presented to a request at or past its expiry instant.
const expiryBuffer = 30 * time.Second

// Token represents an OAuth2 access token held by the client. Tokens are
// replaced wholesale on refresh, never mutated in place.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type,omitempty"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"-"`
}

// Valid reports whether the token can still be presented to a request.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(expiryBuffer).Before(t.ExpiresAt)
}

// tokenStore holds the current token. The client is single-threaded by
// contract, so no locking is needed here.
type tokenStore struct {
	token *Token
}

func (s *tokenStore) Get() *Token {
	return s.token
}

func (s *tokenStore) Set(token *Token) {
	s.token = token
}

// TokenManager obtains and refreshes access tokens.
type TokenManager interface {
	// GetToken returns a currently valid access token, exchanging
	// credentials first when no valid token is held.
	GetToken(ctx context.Context) (string, error)

	// RefreshToken forces a new credential exchange.
	RefreshToken(ctx context.Context) error

	// SetToken manually installs an access token.
	SetToken(token string, expiresAt time.Time)
}
