// Package commands implements the sellsy CLI commands.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
	"github.com/fivetwenty-io/sellsy-client/pkg/sellsyclient"
)

// Common string constants used throughout the commands package.
const (
	// Output formats.
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"

	defaultJSONIndent = "  "
)

// Common static errors used throughout the commands package.
var (
	ErrClientIDRequired     = errors.New("client ID is required (flag --client-id or SELLSY_CLIENT_ID)")
	ErrClientSecretRequired = errors.New("client secret is required (flag --client-secret or SELLSY_CLIENT_SECRET)")
	ErrEndpointRequired     = errors.New("endpoint argument is required")
)

// CreateClient builds an API client from the global flags and environment.
func CreateClient(ctx context.Context, withCustomFields bool) (sellsy.Client, error) {
	clientID := viper.GetString("client-id")
	if clientID == "" {
		return nil, ErrClientIDRequired
	}

	clientSecret := viper.GetString("client-secret")
	if clientSecret == "" {
		return nil, ErrClientSecretRequired
	}

	config := &sellsy.Config{
		APIEndpoint:      viper.GetString("api"),
		AuthURL:          viper.GetString("auth-url"),
		ClientID:         clientID,
		ClientSecret:     clientSecret,
		WithCustomFields: withCustomFields,
		Logger:           NewLogger(viper.GetBool("verbose")),
		Debug:            viper.GetBool("verbose"),
	}

	client, err := sellsyclient.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// NewLogger returns a zerolog-backed Logger writing to stderr. Debug
// events are suppressed unless verbose is set.
func NewLogger(verbose bool) sellsy.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	return &zerologLogger{logger: logger}
}

type zerologLogger struct {
	logger zerolog.Logger
}

func (l *zerologLogger) Debug(message string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(message)
}

func (l *zerologLogger) Info(message string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(message)
}

func (l *zerologLogger) Warn(message string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(message)
}

func (l *zerologLogger) Error(message string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(message)
}

// renderStructured writes value as JSON or YAML to stdout. It returns
// false when the configured output format is neither.
func renderStructured(value interface{}) (bool, error) {
	switch viper.GetString("output") {
	case OutputFormatJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", defaultJSONIndent)

		return true, encoder.Encode(value)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(os.Stdout)

		return true, encoder.Encode(value)
	default:
		return false, nil
	}
}

func joinSorted(values []string) string {
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)

	return strings.Join(sorted, ", ")
}
