// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/custos-project/custos/internal/access"
)

// Handler builds the HTTP router with all routes and middleware. It is
// exported for in-process testing with httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Get("/health", s.handleHealth)

	// Public auth endpoints
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/reset-password", s.handleResetPassword)
	r.Post("/auth/pass-reset-email/{email}", s.handleRequestPasswordReset)

	// Bearer-protected endpoints
	r.Group(func(r chi.Router) {
		r.Use(s.bearerMiddleware)

		r.Post("/auth/register", s.requireOperation(access.OpRegister, s.handleRegister))
		r.Post("/auth/register-admin", s.requireOperation(access.OpRegisterAdmin, s.handleRegisterAdmin))
		r.Post("/auth/support-desk", s.requireOperation(access.OpSupportDesk, s.handleCreateSupportUser))
		r.Post("/auth/validate-token", s.requireOperation(access.OpValidateToken, s.handleValidateToken))

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", s.requireOperation(access.OpGroupCreate, s.handleCreateGroup))
			r.Get("/{id}", s.requireOperation(access.OpGroupRead, s.handleGetGroup))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", s.requireOperation(access.OpTransactionCreate, s.handleCreateTransaction))
			r.Get("/", s.requireOperation(access.OpTransactionList, s.handleListTransactions))
			r.Get("/user", s.requireOperation(access.OpTransactionListOwn, s.handleListOwnTransactions))
			r.Get("/files/{name}", s.requireOperation(access.OpTransactionFile, s.handleGetTransactionFile))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.requireOperation(access.OpTransactionRead, s.handleGetTransaction))
				r.Put("/", s.requireOperation(access.OpTransactionUpdate, s.handleUpdateTransaction))
				r.Delete("/", s.requireOperation(access.OpTransactionDelete, s.handleDeleteTransaction))
			})
		})
	})

	return r
}

// handleHealth reports liveness for load balancers.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
