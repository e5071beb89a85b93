package main

import (
	"github.com/spf13/cobra"

	"synctask-notifications/internal/common/config"
)

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "notification-manager",
		Short:         "SyncTask email notification service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml (defaults to ./configs)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newPreviewCommand())
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFromFile(o.configPath)
	}
	return config.Load()
}
