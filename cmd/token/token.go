package token

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/imagedrop/internal/auth"
	"github.com/leefowlercu/imagedrop/internal/config"
)

// Flag variables
var (
	tokenTTL time.Duration
)

// TokenCmd issues a bearer token for the HTTP server.
var TokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Issue a bearer token for the HTTP server",
	Long: `Issue a bearer token signed with server.auth_secret.

When the secret is set, "imagedrop serve" requires a token on /paste, /events
and /mcp. Send it as "Authorization: Bearer <token>", or as ?access_token= for
websocket clients. The subject defaults to "cli" and is only logged.`,
	Example: `  # Issue a day-long token
  imagedrop token

  # Issue a week-long token for a named client
  imagedrop token editor-plugin --ttl 168h`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: validateToken,
	RunE:    runToken,
}

func init() {
	TokenCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTTL, "Token lifetime")
}

func validateToken(cmd *cobra.Command, args []string) error {
	if tokenTTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	cmd.SilenceUsage = true
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	logger := slog.Default().With("command", "token")

	secret := config.Get().Server.AuthSecret
	if secret == "" {
		return fmt.Errorf("server.auth_secret is not set; set it in the config file or IMAGEDROP_SERVER_AUTH_SECRET")
	}

	subject := "cli"
	if len(args) == 1 {
		subject = args[0]
	}

	tokens, err := auth.New(secret, auth.WithTTL(tokenTTL))
	if err != nil {
		return fmt.Errorf("failed to configure auth; %w", err)
	}
	signed, err := tokens.Issue(subject)
	if err != nil {
		return err
	}

	logger.Debug("issued token", "subject", subject, "ttl", tokenTTL)
	fmt.Fprintln(cmd.OutOrStdout(), signed)
	return nil
}
