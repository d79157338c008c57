// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package main

import (
	"os"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/custos-project/custos/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long: `Inspect and apply schema migrations against the PostgreSQL database.
Reads the connection string from the CUSTOS_DATABASE_URL environment variable.`,
	}

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateStepsCmd())
	cmd.AddCommand(newMigrateVersionCmd())
	cmd.AddCommand(newMigrateForceCmd())

	return cmd
}

// openMigrator builds a Migrator from the environment. Migrations do not
// need the full server configuration, so only the database URL is read.
func openMigrator() (*store.Migrator, error) {
	databaseURL := os.Getenv("CUSTOS_DATABASE_URL")
	if databaseURL == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("CUSTOS_DATABASE_URL environment variable is required")
	}
	return store.NewMigrator(databaseURL)
}

func closeMigrator(cmd *cobra.Command, m *store.Migrator) {
	if err := m.Close(); err != nil {
		cmd.PrintErrln("warning: failed to close migrator:", err)
	}
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, m)

			pending, err := m.PendingMigrations()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				cmd.Println("No pending migrations")
				return nil
			}

			for _, v := range pending {
				name, nameErr := store.MigrationName(v)
				if nameErr != nil || name == "" {
					name = strconv.FormatUint(uint64(v), 10)
				}
				cmd.Println("Applying:", name)
			}

			if err := m.Up(); err != nil {
				return err
			}

			cmd.Println("Migrations completed successfully")
			return nil
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (drops all data)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, m)

			if err := m.Down(); err != nil {
				return err
			}

			cmd.Println("All migrations rolled back")
			return nil
		},
	}
}

func newMigrateStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps <n>",
		Short: "Apply n migrations (negative rolls back)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_ARGUMENT").Errorf("steps must be an integer, got %q", args[0])
			}

			m, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, m)

			if err := m.Steps(n); err != nil {
				return err
			}

			cmd.Printf("Applied %d step(s)\n", n)
			return nil
		},
	}
}

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, m)

			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				cmd.Println("No migrations applied")
				return nil
			}

			name, err := store.MigrationName(version)
			if err != nil || name == "" {
				name = strconv.FormatUint(uint64(version), 10)
			}
			if dirty {
				cmd.Printf("Version: %s (dirty)\n", name)
			} else {
				cmd.Printf("Version: %s\n", name)
			}
			return nil
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Set the migration version without running migrations",
		Long: `Set the recorded migration version without running any migrations.
Only use this to recover from a dirty state after repairing the
database by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_ARGUMENT").Errorf("version must be an integer, got %q", args[0])
			}

			m, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, m)

			if err := m.Force(version); err != nil {
				return err
			}

			cmd.Printf("Forced version to %d\n", version)
			return nil
		},
	}
}