package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/config"
	"github.com/spf13/cobra"
)

func newTokenCommand() *cobra.Command {
	var (
		username string
		expiry   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an existing user",
		Long: `Issue a signed access token for an existing user.

The token subject is the user id. Role, college and student id are read
from the database on every request, so role changes apply immediately.

Examples:
  campus token --username sam
  campus token --username rita --expiry 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, cfg config.Config, svc *services) error {
				user, err := svc.users.GetByUsername(ctx, username)
				if err != nil {
					return fmt.Errorf("find user %q: %w", username, err)
				}
				ttl := cfg.Auth.JWTExpiry
				if expiry > 0 {
					ttl = expiry
				}
				token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, ttl, cfg.Auth.JWTIssuer).Generate(user.ID, user.Role)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name (required)")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "token lifetime (default: JWT_EXPIRY_HOURS)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
