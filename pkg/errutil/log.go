// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

// Package errutil provides helpers for logging and asserting structured
// errors produced with samber/oops.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error with structured context when it is an oops error:
// message, code, and attached context are emitted as attributes. Standard
// errors are logged as a plain string.
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

// ErrorCode returns the oops code attached to err, or "unknown" when err is
// not an oops error or carries no code. Used for metrics labels.
func ErrorCode(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "unknown"
	}
	code, ok := oopsErr.Code().(string)
	if !ok || code == "" {
		return "unknown"
	}
	return code
}
