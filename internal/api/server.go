// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

// Package api exposes the Custos HTTP surface: authentication, group and
// transaction routes behind bearer-token authentication and the
// per-operation access policy.
//
// The server follows the usual component lifecycle:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/custos-project/custos/internal/access"
	"github.com/custos-project/custos/internal/auth"
	"github.com/custos-project/custos/internal/group"
	"github.com/custos-project/custos/internal/transaction"
)

// gracefulShutdownTimeout bounds the wait for in-flight requests during
// shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Config holds the HTTP listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Deps holds the collaborators required by the API server.
type Deps struct {
	Config       Config
	Logger       *slog.Logger
	Auth         *auth.Service
	Groups       *group.Service
	Transactions *transaction.Service
	Codec        auth.TokenCodec
	Engine       *access.Engine
	Version      string
}

// Server is the Custos HTTP API server.
type Server struct {
	cfg          Config
	logger       *slog.Logger
	auth         *auth.Service
	groups       *group.Service
	transactions *transaction.Service
	codec        auth.TokenCodec
	engine       *access.Engine
	version      string
	server       *http.Server
}

// New creates an API server. All collaborators are required.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if deps.Groups == nil {
		return nil, oops.Errorf("group service is required")
	}
	if deps.Transactions == nil {
		return nil, oops.Errorf("transaction service is required")
	}
	if deps.Codec == nil {
		return nil, oops.Errorf("token codec is required")
	}
	if deps.Engine == nil {
		return nil, oops.Errorf("access engine is required")
	}

	cfg := deps.Config
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	return &Server{
		cfg:          cfg,
		logger:       deps.Logger,
		auth:         deps.Auth,
		groups:       deps.Groups,
		transactions: deps.Transactions,
		codec:        deps.Codec,
		engine:       deps.Engine,
		version:      deps.Version,
	}, nil
}

// Start begins listening in a background goroutine. The returned error only
// covers startup; listener failures are logged.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	go func() {
		s.logger.Info("api server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server, waiting for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("api server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return oops.Code("API_SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}
