package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskflow/config"
	"taskflow/store/postgres"
	"taskflow/store/sqlite"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Manage the database schema.

Postgres (DATABASE_URL set) uses versioned migrations. SQLite applies its
schema whenever the database is opened, so "up" only opens it.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				s, err := sqlite.Open(cfg.SQLitePath)
				if err != nil {
					return err
				}
				s.Close()
				fmt.Fprintf(cmd.OutOrStdout(), "sqlite schema applied to %s\n", cfg.SQLitePath)
				return nil
			}
			if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := postgresDSN()
			if err != nil {
				return err
			}
			if err := postgres.Rollback(dsn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rolled back one migration")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := postgresDSN()
			if err != nil {
				return err
			}
			version, dirty, err := postgres.Version(dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	})

	return cmd
}

func postgresDSN() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if cfg.DatabaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL is not set; sqlite has no migration history")
	}
	return cfg.DatabaseURL, nil
}
