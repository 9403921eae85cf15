package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/a-gn/claude-setup/internal/app"
	"github.com/a-gn/claude-setup/internal/console"
	"github.com/a-gn/claude-setup/internal/history"
	"github.com/spf13/cobra"
)

const defaultHistoryLimit = 10

// createHistoryCommand creates the command listing recorded install runs.
func createHistoryCommand(factory *app.AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent installs and their backup directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return fmt.Errorf("failed to get limit flag: %w", err)
			}

			return withApp(cmd, factory, func(ctx context.Context, cliApp *app.App) error {
				store, err := cliApp.History()
				if err != nil {
					return err
				}

				runs, err := store.List(ctx, limit)
				if err != nil {
					return err
				}

				printRuns(cliApp.Console(), runs)
				return nil
			})
		},
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Number of runs to show, 0 for all")

	return cmd
}

func printRuns(out *console.Console, runs []history.Run) {
	if len(runs) == 0 {
		out.Plain("No installs recorded yet")
		return
	}

	for i, run := range runs {
		if i > 0 {
			out.Blank()
		}
		out.Plain("%s  %-7s  %-9s  %s",
			run.StartedAt.Local().Format(time.DateTime), run.Mode, run.Status, run.Destination)
		if len(run.Languages) > 0 {
			out.Plain("  languages: %s", strings.Join(run.Languages, " "))
		}
		if run.BackupDir != "" {
			out.Plain("  backup:    %s", run.BackupDir)
		}
		if run.Error != "" {
			out.Plain("  error:     %s", run.Error)
		}
	}
}
