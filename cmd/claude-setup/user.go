package main

import (
	"context"
	"fmt"

	"github.com/a-gn/claude-setup/internal/app"
	"github.com/a-gn/claude-setup/internal/logging"
	"github.com/spf13/cobra"
)

// createUserCommand creates the user-wide install command.
func createUserCommand(factory *app.AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "user",
		Short: "Install configuration user-wide under ~/.claude",
		Long: `Move any existing ~/.claude aside to a timestamped backup, clone the
configuration repository into it and symlink CLAUDE.md and the commands
directory from the clone. Update later with git pull inside the clone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, factory, func(ctx context.Context, cliApp *app.App) error {
				result, err := cliApp.UserInstaller().Install(ctx)
				if err != nil {
					return fmt.Errorf("user install failed: %w", err)
				}

				logging.Get(ctx).Info().
					Str("destination", result.Destination).
					Str("clone_dir", result.CloneDir).
					Str("backup_dir", result.Backup.Dir).
					Msg("User install finished")
				return nil
			})
		},
	}
}
