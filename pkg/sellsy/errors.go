package sellsy

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrClientIDRequired     = errors.New("client ID is required")
	ErrClientSecretRequired = errors.New("client secret is required")
	ErrNoTokenManager       = errors.New("no token manager configured")
	ErrEmptyAccessToken     = errors.New("token endpoint returned an empty access token")
)

// APIError is one error object from the API.
type APIError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ResponseError represents a non-2xx response from the API.
type ResponseError struct {
	StatusCode int
	Err        APIError `json:"error"`
}

// Error implements the error interface for ResponseError.
func (e *ResponseError) Error() string {
	if e.Err.Message == "" {
		return fmt.Sprintf("API responded with status %d", e.StatusCode)
	}

	return fmt.Sprintf("API responded with status %d: %s", e.StatusCode, e.Err.Error())
}

// AuthError means the credential exchange failed. It is fatal to the
// operation in progress and is never retried.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("obtaining access token: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ExhaustedRetriesError means a single HTTP call failed every allowed
// attempt. The current page is lost but the fetch as a whole may still
// return partial results.
type ExhaustedRetriesError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("all %d attempts failed for %s: %v", e.Attempts, e.Endpoint, e.Err)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Err
}

// MergeMismatchError means a custom-field backfill record matched no
// record of the primary page by its (id, created) composite key.
type MergeMismatchError struct {
	Endpoint string
	ID       json.Number
	Created  string
}

func (e *MergeMismatchError) Error() string {
	return fmt.Sprintf("backfill record (id=%s, created=%s) has no match in primary page of %s", e.ID, e.Created, e.Endpoint)
}

// IsAuthError checks whether err is (or wraps) a failed token exchange.
func IsAuthError(err error) bool {
	authErr := &AuthError{}

	return errors.As(err, &authErr)
}

// IsExhaustedRetries checks whether err is (or wraps) a retry exhaustion.
func IsExhaustedRetries(err error) bool {
	exhausted := &ExhaustedRetriesError{}

	return errors.As(err, &exhausted)
}
