// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

// Package errutil bridges oops errors into structured logs and tests.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// CodeOf returns the stable error code carried by an oops error, or ""
// for plain errors. Callers branch on codes instead of error strings.
func CodeOf(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	if code, ok := oopsErr.Code().(string); ok {
		return code
	}
	return ""
}

// LogError logs an error with structured context. For oops errors the
// message, code and attached context become log attributes; plain errors
// log their string.
func LogError(logger *slog.Logger, msg string, err error) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		logger.Error(msg, "error", err)
		return
	}
	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil {
		attrs = append(attrs, "code", code)
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}
	logger.Error(msg, attrs...)
}
