// Package logging provides structured logging for the reconcile
// backend.
//
// Console output is bracketed and colorized:
// [LEVEL] [SYSTEM] [HH:MM:SS] message key=value
package logging

import (
	"log/slog"
	"os"

	"github.com/finvoice/reconcile-backend/internal/infrastructure/config"
)

// NewLogger creates a structured logger based on config
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}

	handler := NewConsoleHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// NewLoggerWithSystem creates a logger with a system prefix
// (e.g. "api", "reconcile", "storage") shown in the bracket.
func NewLoggerWithSystem(cfg config.LoggingConfig, system string) *slog.Logger {
	return NewLogger(cfg).With("system", system)
}
