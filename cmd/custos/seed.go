// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/custos-project/custos/internal/auth"
	authpg "github.com/custos-project/custos/internal/auth/postgres"
	"github.com/custos-project/custos/internal/config"
	"github.com/custos-project/custos/internal/logging"
	"github.com/custos-project/custos/internal/mail"
	"github.com/custos-project/custos/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	email    string
	password string
	timeout  time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the bootstrap super admin account",
		Long: `Creates the initial SUPER_ADMIN account so that the role hierarchy has
a root to grow from. This command is idempotent - it does nothing when
a SUPER_ADMIN already exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.email, "email", "", "super admin email (default: superadmin_email from configuration)")
	cmd.Flags().StringVar(&cfg.password, "password", "", "super admin password (default: superadmin_password from configuration)")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, seedCfg *seedConfig) error {
	cfg, err := config.Load(resolveConfigFile(), nil)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.SetDefault("custos", version, cfg.LogFormat)
	logger := slog.Default()

	email := seedCfg.email
	if email == "" {
		email = cfg.SuperAdminEmail
	}
	password := seedCfg.password
	if password == "" {
		password = cfg.SuperAdminPassword
	}

	// Add timeout to prevent indefinite hangs
	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), seedCfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	cmd.Println("Running migrations...")
	migrator, err := store.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer closeMigrator(cmd, migrator)
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	users := authpg.NewUserRepository(pool)
	hasher := auth.NewBcryptHasher()
	codec, err := auth.NewHS256Codec(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("failed to create token codec: %w", err)
	}
	reset, err := auth.NewResetCoordinator(users, codec, hasher, cfg.ResetTTL)
	if err != nil {
		return fmt.Errorf("failed to create reset coordinator: %w", err)
	}

	// The seed never sends mail, so the log sender suffices here.
	authService, err := auth.NewServiceWithLogger(users, hasher, codec, reset, mail.NewLogSender(logger), cfg.SessionTTL, logger)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	if err := authService.EnsureSuperAdmin(ctx, email, password); err != nil {
		return fmt.Errorf("failed to seed super admin: %w", err)
	}

	cmd.Println("Seeding complete")
	return nil
}