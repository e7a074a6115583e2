package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/sellsy-client/internal/constants"
	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
)

// OAuth2Config configures the client-credentials token manager.
type OAuth2Config struct {
	// TokenURL is the OAuth2 token endpoint.
	TokenURL string

	// ClientID and ClientSecret are the client-credentials pair.
	ClientID     string
	ClientSecret string

	// HTTPClient overrides the HTTP client used for the exchange.
	HTTPClient *http.Client
}

// OAuth2TokenManager manages a short-lived bearer token obtained via the
// client-credentials grant. Refresh is lazy: expiry is checked on every
// GetToken call, not on a background timer. A failed exchange is fatal to
// the operation in progress and is never retried.
type OAuth2TokenManager struct {
	config     *OAuth2Config
	store      tokenStore
	httpClient *http.Client
}

// NewOAuth2TokenManager creates a token manager from config.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.TokenRequestTimeout}
	}

	return &OAuth2TokenManager{
		config:     config,
		httpClient: httpClient,
	}
}

// GetToken returns a valid access token, exchanging credentials when the
// held token is missing or expired.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	if token := m.store.Get(); token.Valid() {
		return token.AccessToken, nil
	}

	token, err := m.exchange(ctx)
	if err != nil {
		return "", err
	}

	m.store.Set(token)

	return token.AccessToken, nil
}

// RefreshToken discards the held token and performs a fresh exchange.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	token, err := m.exchange(ctx)
	if err != nil {
		return err
	}

	m.store.Set(token)

	return nil
}

// SetToken manually installs an access token.
func (m *OAuth2TokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{
		AccessToken: token,
		ExpiresAt:   expiresAt,
	})
}

// Expiry returns the held token's expiry instant, zero when none is held.
func (m *OAuth2TokenManager) Expiry() time.Time {
	token := m.store.Get()
	if token == nil {
		return time.Time{}
	}

	return token.ExpiresAt
}

// exchange performs the client-credentials grant. Any transport error or
// non-2xx response surfaces as *sellsy.AuthError.
func (m *OAuth2TokenManager) exchange(ctx context.Context) (*Token, error) {
	form := url.Values{
		"grant_type":    []string{"client_credentials"},
		"client_id":     []string{m.config.ClientID},
		"client_secret": []string{m.config.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &sellsy.AuthError{Err: err}
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, &sellsy.AuthError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &sellsy.AuthError{Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &sellsy.AuthError{
			Err: fmt.Errorf("token endpoint responded with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, &sellsy.AuthError{Err: fmt.Errorf("parsing token response: %w", err)}
	}

	if token.AccessToken == "" {
		return nil, &sellsy.AuthError{Err: sellsy.ErrEmptyAccessToken}
	}

	token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)

	return &token, nil
}
