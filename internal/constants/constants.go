// Package constants defines shared constants used across the client.
package constants

import "time"

// HTTP timeouts.
const (
	// RequestTimeout bounds every API request, each retry attempt
	// individually. A timeout counts as a transport failure.
	RequestTimeout = 10 * time.Second

	// TokenRequestTimeout bounds the OAuth2 credential exchange.
	TokenRequestTimeout = 10 * time.Second
)

// Retry behaviour.
const (
	// DefaultRetryMax is the total number of attempts per HTTP call.
	DefaultRetryMax = 5

	// BackoffBase is the exponential backoff base: the delay before
	// retry k is BackoffBase^k backoff units.
	BackoffBase = 2

	// DefaultBackoffUnit scales backoff delays. Tests shrink it.
	DefaultBackoffUnit = time.Second
)

// Pagination and embedding.
const (
	// DefaultPageSize is the page size requested from collection
	// endpoints.
	DefaultPageSize = 100

	// EmbedBatchSize is the upstream cap on how many custom-field
	// embeds a single request may specify.
	EmbedBatchSize = 300

	// DefaultOrder and DefaultDirection sort collections ascending by
	// id so pagination is stable across requests.
	DefaultOrder     = "id"
	DefaultDirection = "asc"
)

// API paths.
const (
	// CustomFieldsEndpoint is the custom-field definitions collection.
	CustomFieldsEndpoint = "custom-fields"

	// EmbedFieldPrefix prefixes a custom-field id in an embed key.
	EmbedFieldPrefix = "cf."
)
