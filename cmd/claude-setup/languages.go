package main

import (
	"context"
	"fmt"

	"github.com/a-gn/claude-setup/internal/app"
	"github.com/spf13/cobra"
)

// createLanguagesCommand creates the command listing installable languages.
func createLanguagesCommand(factory *app.AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages available for project installs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, factory, func(ctx context.Context, cliApp *app.App) error {
				names, err := cliApp.ProjectInstaller().AvailableLanguages(ctx)
				if err != nil {
					return fmt.Errorf("failed to list languages: %w", err)
				}

				out := cliApp.Console()
				out.Plain("Available languages:")
				for i, name := range names {
					out.Plain("  %d. %s", i+1, name)
				}
				return nil
			})
		},
	}
}
