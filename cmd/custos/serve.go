// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custos-project/custos/internal/access"
	"github.com/custos-project/custos/internal/api"
	"github.com/custos-project/custos/internal/auth"
	authpg "github.com/custos-project/custos/internal/auth/postgres"
	"github.com/custos-project/custos/internal/config"
	"github.com/custos-project/custos/internal/group"
	grouppg "github.com/custos-project/custos/internal/group/postgres"
	"github.com/custos-project/custos/internal/logging"
	"github.com/custos-project/custos/internal/mail"
	"github.com/custos-project/custos/internal/observability"
	"github.com/custos-project/custos/internal/store"
	"github.com/custos-project/custos/internal/transaction"
	txpg "github.com/custos-project/custos/internal/transaction/postgres"
	"github.com/custos-project/custos/internal/xdg"
)

// shutdownTimeout bounds the wait for the metrics server during shutdown.
// The API server applies its own deadline to in-flight requests.
const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Custos HTTP server",
		Long: `Start the HTTP server exposing the authentication, group, and
transaction APIs, apply pending database migrations, and serve
metrics and health endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}

	defaults := config.Default()
	cmd.Flags().String("http_addr", defaults.HTTPAddr, "HTTP listen address")
	cmd.Flags().String("metrics_addr", defaults.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("upload_dir", defaults.UploadDir, "directory for transaction file uploads")
	cmd.Flags().String("log_format", defaults.LogFormat, "log format (json or text)")

	return cmd
}

// runServe wires the full service and blocks until a shutdown signal.
func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(resolveConfigFile(), cmd.Flags())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.SetDefault("custos", version, cfg.LogFormat)
	logger := slog.Default()

	slog.Info("starting custos",
		"http_addr", cfg.HTTPAddr,
		"log_format", cfg.LogFormat,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	slog.Info("connected to database")

	migrator, err := store.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	if err := migrator.Close(); err != nil {
		slog.Warn("error closing migrator", "error", err)
	}

	slog.Info("database schema up to date")

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

	var sender auth.EmailSender
	if cfg.MailConfigured() {
		sender, err = mail.NewSMTPSender(mail.Config{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUsername,
			Password:    cfg.SMTPPassword,
			From:        cfg.SMTPFrom,
			FrontendURL: cfg.FrontendURL,
			ResetTTL:    cfg.ResetTTL,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create mail sender: %w", err)
		}
	} else {
		slog.Warn("smtp not configured, reset links will be logged instead of mailed")
		sender = mail.NewLogSender(logger)
	}

	authService, err := auth.NewServiceWithLogger(users, hasher, codec, reset, sender, cfg.SessionTTL, logger)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	if cfg.SuperAdminEmail != "" && cfg.SuperAdminPassword != "" {
		if err := authService.EnsureSuperAdmin(ctx, cfg.SuperAdminEmail, cfg.SuperAdminPassword); err != nil {
			return fmt.Errorf("failed to ensure super admin: %w", err)
		}
	}

	groupService, err := group.NewService(grouppg.NewGroupRepository(pool), authService)
	if err != nil {
		return fmt.Errorf("failed to create group service: %w", err)
	}

	uploadDir := cfg.UploadDir
	if uploadDir == "" {
		uploadDir = filepath.Join(xdg.DataDir(), "uploads")
	}
	files, err := transaction.NewDiskStore(uploadDir)
	if err != nil {
		return fmt.Errorf("failed to create file store: %w", err)
	}

	transactionService, err := transaction.NewService(txpg.NewTransactionRepository(pool), authService, files, logger)
	if err != nil {
		return fmt.Errorf("failed to create transaction service: %w", err)
	}

	engine, err := access.NewEngine(access.DefaultPolicy())
	if err != nil {
		return fmt.Errorf("failed to create access engine: %w", err)
	}

	apiServer, err := api.New(api.Deps{
		Config:       api.Config{Addr: cfg.HTTPAddr},
		Logger:       logger,
		Auth:         authService,
		Groups:       groupService,
		Transactions: transactionService,
		Codec:        codec,
		Engine:       engine,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("failed to create api server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start api server: %w", err)
	}

	// Start observability server if configured
	var obsServer *observability.Server
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool {
			return pool.Ping(context.Background()) == nil
		})
		obsErrChan, obsErr := obsServer.Start()
		if obsErr != nil {
			if closeErr := apiServer.Close(); closeErr != nil {
				slog.Warn("failed to stop api server during cleanup", "error", closeErr)
			}
			return fmt.Errorf("failed to start observability server: %w", obsErr)
		}
		// Monitor observability server errors - cancel context on error
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		slog.Info("observability server started", "addr", obsServer.Addr())
	}

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Custos server started")
	slog.Info("custos ready", "http_addr", cfg.HTTPAddr)

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	// Graceful shutdown
	slog.Info("shutting down...")

	if err := apiServer.Close(); err != nil {
		slog.Warn("error stopping api server", "error", err)
	}

	if obsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors watches a server's error channel and cancels the
// context on error so the whole process shuts down together. It exits when
// an error arrives, the channel closes, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
		// Context cancelled, exit monitoring
	}
}