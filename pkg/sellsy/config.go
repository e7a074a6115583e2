package sellsy

import "time"

// Default endpoints of the hosted Sellsy platform.
const (
	DefaultAPIEndpoint = "https://api.sellsy.com/v2"
	DefaultAuthURL     = "https://login.sellsy.com/oauth2/access-tokens"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a client.
//
// ClientID and ClientSecret are exchanged for a short-lived bearer token
// via the client-credentials grant; the token is refreshed lazily before
// any call made at or past its expiry instant.
//
// When WithCustomFields is set, the full custom-field catalog is fetched
// once at construction and every record fetch embeds and resolves the
// relevant custom-field values. The catalog never expires.
//
// A client built from this config holds private per-instance state (token,
// catalog) and must not be used concurrently from multiple goroutines.
type Config struct {
	// APIEndpoint is the API base URL. Defaults to DefaultAPIEndpoint.
	APIEndpoint string

	// AuthURL is the OAuth2 token endpoint. Defaults to DefaultAuthURL.
	AuthURL string

	// ClientID and ClientSecret are the client-credentials pair.
	ClientID     string
	ClientSecret string

	// WithCustomFields enables custom-field discovery and resolution.
	WithCustomFields bool

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Logger receives structured diagnostics. Nil disables logging.
	Logger Logger

	// Debug enables request/response logging on the HTTP client.
	Debug bool

	// HTTPTimeout is the per-request timeout. Defaults to 10s.
	HTTPTimeout time.Duration

	// RetryMax is the total number of attempts per HTTP call. Defaults
	// to 5.
	RetryMax int

	// RetryWaitUnit scales the exponential backoff (delay before retry k
	// is 2^k units). Defaults to one second; tests shrink it.
	RetryWaitUnit time.Duration
}
