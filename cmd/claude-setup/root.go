package main

import (
	"context"
	"fmt"
	"os"

	"github.com/a-gn/claude-setup/internal/app"
	"github.com/spf13/cobra"
)

// createNewRootCommand creates the main root command that shows help by default.
func createNewRootCommand() *cobra.Command {
	return newRootCommand(app.NewAppFactory())
}

// newRootCommand builds the command tree around factory so tests can replace
// the network, git and filesystem components.
func newRootCommand(factory *app.AppFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "claude-setup",
		Short: "Install Claude Code configuration",
		Long: "Install Claude Code configuration either into the current project " +
			"or user-wide under ~/.claude.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Show help when run without subcommands
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "",
		"Path to config file (default $XDG_CONFIG_HOME/claude-setup/config.yml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Mirror the debug log to stderr")

	rootCmd.AddCommand(
		createProjectCommand(factory),
		createUserCommand(factory),
		createLanguagesCommand(factory),
		createHistoryCommand(factory),
		createConfigCommand(factory),
	)

	return rootCmd
}

// createAppFromCommand reads the persistent flags and creates the app for one
// command invocation. The returned context carries the logger.
func createAppFromCommand(
	ctx context.Context, cmd *cobra.Command, factory *app.AppFactory,
) (context.Context, *app.App, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}

	opts := app.AppOptions{
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
		ConfigPath: configPath,
		Verbose:    verbose,
	}
	if in, ok := cmd.InOrStdin().(*os.File); ok {
		opts.Stdin = in
	}

	appCtx, cliApp, err := factory.CreateApp(ctx, opts)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return appCtx, cliApp, nil
}

// withApp runs fn with a freshly created app and closes it afterwards.
func withApp(
	cmd *cobra.Command, factory *app.AppFactory, fn func(context.Context, *app.App) error,
) (err error) {
	ctx, cliApp, err := createAppFromCommand(cmd.Context(), cmd, factory)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := cliApp.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close app: %w", closeErr)
		}
	}()

	return fn(ctx, cliApp)
}
