// Package logger builds the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the logger's level and encoding.
type Config struct {
	Service     string
	Environment string
	Level       string
}

// New returns a logger writing to stdout and installs it as the slog default.
// Production logs are JSON; other environments use text with source lines.
func New(cfg Config) *slog.Logger {
	logger := newLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, cfg Config) *slog.Logger {
	production := strings.EqualFold(cfg.Environment, "production")
	opts := &slog.HandlerOptions{
		AddSource: !production,
		Level:     ParseLevel(cfg.Level),
	}

	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("service", cfg.Service, "env", cfg.Environment)
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
