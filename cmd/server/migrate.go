package main

import (
	"github.com/spf13/cobra"

	"github.com/vedran77/messagely/internal/database"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: withMigrator(func(cmd *cobra.Command, m *database.Migrator) error {
			if err := m.Up(); err != nil {
				return err
			}
			return printVersion(cmd, m)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration, dropping all tables",
		RunE: withMigrator(func(cmd *cobra.Command, m *database.Migrator) error {
			if err := m.Down(); err != nil {
				return err
			}
			return printVersion(cmd, m)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE:  withMigrator(printVersion),
	})

	return cmd
}

func withMigrator(run func(cmd *cobra.Command, m *database.Migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		m, err := database.NewMigrator(cfg.DatabaseURL())
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()

		return run(cmd, m)
	}
}

func printVersion(cmd *cobra.Command, m *database.Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		cmd.Printf("schema version %d (dirty)\n", v)
		return nil
	}
	cmd.Printf("schema version %d\n", v)
	return nil
}
