// Package sellsyclient provides the main entry point for creating Sellsy
// API clients.
package sellsyclient

import (
	"context"
	"strings"

	"github.com/fivetwenty-io/sellsy-client/internal/client"
	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
)

// New creates a new Sellsy API client. When config.WithCustomFields is
// set, the custom-field catalog is discovered here, so construction makes
// network calls.
func New(ctx context.Context, config *sellsy.Config) (sellsy.Client, error) {
	if config == nil {
		return nil, sellsy.ErrConfigRequired
	}

	if config.APIEndpoint != "" {
		config.APIEndpoint = normalizeEndpoint(config.APIEndpoint)
	}

	if config.AuthURL != "" {
		config.AuthURL = normalizeEndpoint(config.AuthURL)
	}

	return client.New(ctx, config)
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(endpoint, "/")

	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}
