package main

import (
	"context"
	"fmt"

	"github.com/a-gn/claude-setup/internal/app"
	"github.com/a-gn/claude-setup/internal/installer"
	"github.com/a-gn/claude-setup/internal/logging"
	"github.com/spf13/cobra"
)

// createProjectCommand creates the project-local install command.
func createProjectCommand(factory *app.AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project [LANG...]",
		Short: "Install configuration into the current directory",
		Long: `Download the configuration archive, keep only the selected languages and
copy the result into the current directory. Existing files that would be
overwritten are moved to a timestamped .claude_backup directory first.

Without languages every available language is installed.`,
		Example: `  claude-setup project python go
  claude-setup project --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive, err := cmd.Flags().GetBool("interactive")
			if err != nil {
				return fmt.Errorf("failed to get interactive flag: %w", err)
			}

			return withApp(cmd, factory, func(ctx context.Context, cliApp *app.App) error {
				return runProjectInstall(ctx, cliApp, args, interactive)
			})
		},
	}

	cmd.Flags().BoolP("interactive", "i", false, "Choose languages from a numbered list")

	return cmd
}

func runProjectInstall(ctx context.Context, cliApp *app.App, args []string, interactive bool) error {
	opts := installer.ProjectOptions{
		Languages:   args,
		Interactive: interactive,
	}
	if interactive {
		prompter := cliApp.NewPrompter()
		defer func() {
			if err := prompter.Close(); err != nil {
				logging.Get(ctx).Debug().Err(err).Msg("Failed to close prompter")
			}
		}()
		opts.Prompter = prompter
	}

	result, err := cliApp.ProjectInstaller().Install(ctx, opts)
	if err != nil {
		return fmt.Errorf("project install failed: %w", err)
	}

	logging.Get(ctx).Info().
		Str("destination", result.Destination).
		Strs("languages", result.Languages.Names()).
		Str("backup_dir", result.Backup.Dir).
		Msg("Project install finished")
	return nil
}
