package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Togather-Foundation/campus/internal/config"
	"github.com/Togather-Foundation/campus/internal/domain/users"
	"github.com/spf13/cobra"
)

const operatorTimeout = 30 * time.Second

// withServices loads config, opens the database and runs fn with a bounded context.
func withServices(parent context.Context, fn func(ctx context.Context, cfg config.Config, svc *services) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Logging)

	ctx, cancel := context.WithTimeout(parent, operatorTimeout)
	defer cancel()

	svc, err := openServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(ctx, cfg, svc)
}

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Provision users and manage roles",
		Long: `Operator commands for user accounts.

Credentials live with the identity provider; these commands only manage the
profile and role used for authorization.

Examples:
  campus user create --username sam --name "Sam Lee" --role student --college Engineering --student-id 2023001
  campus user set-role --username sam --role organizer`,
	}
	cmd.AddCommand(newUserCreateCommand(), newUserSetRoleCommand())
	return cmd
}

func newUserCreateCommand() *cobra.Command {
	var input users.CreateInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, _ config.Config, svc *services) error {
				user, err := svc.users.Create(ctx, input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, %s)\n", user.ID, user.Username, user.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&input.Username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&input.Name, "name", "", "display name")
	cmd.Flags().StringVar(&input.Role, "role", "student", "student, organizer, reviewer or admin")
	cmd.Flags().StringVar(&input.College, "college", "", "college used for event eligibility")
	cmd.Flags().StringVar(&input.StudentID, "student-id", "", "student id; its first four characters are the grade")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&input.Major, "major", "", "major")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newUserSetRoleCommand() *cobra.Command {
	var username, role string
	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Change a user's role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, _ config.Config, svc *services) error {
				user, err := svc.users.GetByUsername(ctx, username)
				if err != nil {
					return fmt.Errorf("find user %q: %w", username, err)
				}
				updated, err := svc.users.SetRole(ctx, user.ID, role)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %d (%s) is now %s\n", updated.ID, updated.Username, updated.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&role, "role", "", "student, organizer, reviewer or admin (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
