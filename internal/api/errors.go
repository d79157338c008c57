// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/custos-project/custos/pkg/errutil"
)

// errorEnvelope is the wire shape of every error response.
type errorEnvelope struct {
	StatusCode int       `json:"statusCode"`
	Message    string    `json:"message"`
	Success    bool      `json:"success"`
	Timestamp  time.Time `json:"timestamp"`
}

// codeStatus maps stable domain error codes onto HTTP statuses. Codes not
// listed here are treated as internal failures.
var codeStatus = map[string]int{
	"AUTH_INVALID_CREDENTIALS":   http.StatusUnauthorized,
	"AUTH_EMAIL_NOT_VERIFIED":    http.StatusUnauthorized,
	"AUTH_EMAIL_EXISTS":          http.StatusConflict,
	"AUTH_RESET_TOKEN_INVALID":   http.StatusBadRequest,
	"AUTH_INVALID_EMAIL":         http.StatusBadRequest,
	"AUTH_INVALID_ROLE":          http.StatusBadRequest,
	"GROUP_NAME_REQUIRED":        http.StatusBadRequest,
	"GROUP_ADMIN_INVALID":        http.StatusBadRequest,
	"GROUP_NOT_FOUND":            http.StatusNotFound,
	"TRANSACTION_TITLE_REQUIRED": http.StatusBadRequest,
	"TRANSACTION_FILE_REQUIRED":  http.StatusBadRequest,
	"TRANSACTION_USER_INVALID":   http.StatusBadRequest,
	"TRANSACTION_NOT_FOUND":      http.StatusNotFound,
	"TRANSACTION_FILE_NOT_FOUND": http.StatusNotFound,
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // best-effort write, the connection may be gone
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes the error envelope with the given status and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorEnvelope{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Timestamp:  time.Now().UTC(),
	})
}

// writeDomainError translates a domain error into an envelope. The code
// decides the status; unknown codes surface as an opaque 500 so internal
// detail never leaks to clients.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		s.writeInternalError(w, r, err)
		return
	}
	status, mapped := codeStatus[errutil.CodeOf(err)]
	if !mapped {
		s.writeInternalError(w, r, err)
		return
	}
	writeError(w, status, oopsErr.Error())
}

func (s *Server) writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
