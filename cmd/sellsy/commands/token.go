package commands

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewTokenCommand creates the token command
func NewTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Verify OAuth2 credentials",
		Long:  "Exchange the configured client credentials for an access token and display it",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Prompt for the secret rather than failing when only the ID
			// was configured
			if viper.GetString("client-secret") != "" || viper.GetString("client-id") == "" {
				return runToken(cmd)
			}

			fmt.Fprint(os.Stderr, "Client secret: ")

			secret, err := term.ReadPassword(int(syscall.Stdin))

			fmt.Fprintln(os.Stderr)

			if err != nil {
				return fmt.Errorf("failed to read client secret: %w", err)
			}

			viper.Set("client-secret", strings.TrimSpace(string(secret)))

			return runToken(cmd)
		},
	}
}

func runToken(cmd *cobra.Command) error {
	client, err := CreateClient(cmd.Context(), false)
	if err != nil {
		return err
	}

	token, err := client.GetToken(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to obtain token: %w", err)
	}

	type TokenInfo struct {
		AccessToken string `json:"access_token" yaml:"access_token"`
		TokenType   string `json:"token_type"   yaml:"token_type"`
	}

	rendered, err := renderStructured(TokenInfo{AccessToken: token, TokenType: "Bearer"})
	if err != nil {
		return err
	}

	if rendered {
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	_ = table.Append("Token type", "Bearer")
	_ = table.Append("Access token", maskToken(token))

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func maskToken(token string) string {
	const visible = 8

	if len(token) <= visible {
		return token
	}

	return token[:visible] + "..."
}
