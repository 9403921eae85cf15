package main

import (
	"fmt"

	"github.com/a-gn/claude-setup/internal/app"
	"github.com/a-gn/claude-setup/internal/config"
	"github.com/a-gn/claude-setup/internal/console"
	"github.com/a-gn/claude-setup/internal/safety"
	"github.com/a-gn/claude-setup/internal/storage"
	"github.com/spf13/cobra"
)

// createConfigCommand groups the configuration file helpers.
func createConfigCommand(factory *app.AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(createConfigInitCommand(factory))

	return cmd
}

func createConfigInitCommand(factory *app.AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return fmt.Errorf("failed to get force flag: %w", err)
			}

			env, err := factory.Environment()
			if err != nil {
				return err
			}
			if err := safety.RefuseRoot(env); err != nil {
				return err
			}

			if configPath == "" {
				configPath = storage.DefaultConfigPath()
			}
			if err := config.WriteDefault(factory.FileSystem(), configPath, force); err != nil {
				return err
			}

			console.New(cmd.OutOrStdout()).Info("Wrote default configuration to %s", configPath)
			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration file")

	return cmd
}
