package main

import (
	"github.com/spf13/cobra"

	"github.com/vedran77/messagely/internal/config"
)

var configFile string

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messagely",
		Short: "messagely - user-to-user messaging API",
		Long: `messagely lets registered users exchange private text messages
over a JSON API authenticated with bearer tokens.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(configFile, cmd.Flags())
}
