// Package client implements the sellsy.Client interface.
package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/sellsy-client/internal/auth"
	"github.com/fivetwenty-io/sellsy-client/internal/constants"
	"github.com/fivetwenty-io/sellsy-client/internal/http"
	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
)

// Client implements the sellsy.Client interface. A single instance holds
// private token and catalog state and must not be used concurrently.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	baseURL      string
	logger       sellsy.Logger
	catalog      *sellsy.CustomFieldCatalog

	customFields *CustomFieldsClient
	records      *RecordsClient
}

// New creates a new API client. When config.WithCustomFields is set the
// full custom-field catalog is swept once here and cached for the
// client's lifetime.
func New(ctx context.Context, config *sellsy.Config) (*Client, error) {
	if config.ClientID == "" {
		return nil, sellsy.ErrClientIDRequired
	}

	if config.ClientSecret == "" {
		return nil, sellsy.ErrClientSecretRequired
	}

	tokenManager := auth.NewOAuth2TokenManager(&auth.OAuth2Config{
		TokenURL:     authURL(config),
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
	})

	return NewWithTokenManager(ctx, config, tokenManager)
}

// NewWithTokenManager creates a new API client with a custom token
// manager.
func NewWithTokenManager(ctx context.Context, config *sellsy.Config, tokenManager auth.TokenManager) (*Client, error) {
	httpClient := http.NewClient(apiEndpoint(config), tokenManager, httpOptions(config)...)

	client := &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		baseURL:      apiEndpoint(config),
		logger:       config.Logger,
	}

	client.customFields = NewCustomFieldsClient(httpClient)

	if config.WithCustomFields {
		catalog, err := client.customFields.BuildCatalog(ctx)
		if err != nil {
			return nil, fmt.Errorf("building custom-field catalog: %w", err)
		}

		client.catalog = catalog
	}

	client.records = NewRecordsClient(httpClient, client.catalog, config.Logger)

	return client, nil
}

// CustomFields implements sellsy.Client.CustomFields.
func (c *Client) CustomFields() sellsy.CustomFieldsClient {
	return c.customFields
}

// Records implements sellsy.Client.Records.
func (c *Client) Records() sellsy.RecordsClient {
	return c.records
}

// Catalog implements sellsy.Client.Catalog.
func (c *Client) Catalog() *sellsy.CustomFieldCatalog {
	return c.catalog
}

// GetToken returns the current access token from the token manager.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	if c.tokenManager == nil {
		return "", sellsy.ErrNoTokenManager
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	return token, nil
}

func apiEndpoint(config *sellsy.Config) string {
	if config.APIEndpoint != "" {
		return config.APIEndpoint
	}

	return sellsy.DefaultAPIEndpoint
}

func authURL(config *sellsy.Config) string {
	if config.AuthURL != "" {
		return config.AuthURL
	}

	return sellsy.DefaultAuthURL
}

// httpOptions builds HTTP client options from config.
func httpOptions(config *sellsy.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(&loggerAdapter{logger: config.Logger}))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	retryMax := config.RetryMax
	if retryMax <= 0 {
		retryMax = constants.DefaultRetryMax
	}

	backoffUnit := config.RetryWaitUnit
	if backoffUnit <= 0 {
		backoffUnit = constants.DefaultBackoffUnit
	}

	httpOpts = append(httpOpts, http.WithRetryConfig(retryMax, backoffUnit))

	return httpOpts
}

// loggerAdapter adapts sellsy.Logger to http.Logger.
type loggerAdapter struct {
	logger sellsy.Logger
}

func (l *loggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, fields)
}

func (l *loggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, fields)
}

func (l *loggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, fields)
}

func (l *loggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, fields)
}
