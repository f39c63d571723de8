// Package logging builds the slog loggers used across the pipeline.
//
// Terminal runs get colored console output:
// [LEVEL] [system] [HH:MM:SS] message key=value
// Setting format to "json" switches to slog's JSON handler for runs
// whose output is collected by something other than a human.
package logging

import (
	"log/slog"
	"os"

	"github.com/liuming-dev/ledgerlink/internal/infrastructure/config"
)

// NewLogger creates a logger from the observability config.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	level := parseLevel(cfg.Level)

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(NewConsoleHandler(os.Stdout, level))
}

// NewLoggerWithSystem creates a logger scoped to one pipeline stage,
// e.g. "import", "match", "ledger".
func NewLoggerWithSystem(cfg config.LoggingConfig, system string) *slog.Logger {
	return NewLogger(cfg).With("system", system)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
