package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/jwebster45206/inquest-engine/internal/config"
)

// Setup configures the global slog logger based on environment
func Setup(cfg *config.Config) *slog.Logger {
	return New(cfg, os.Stdout)
}

// New is Setup writing to w instead of stdout.
func New(cfg *config.Config, w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// WithSession adds the session id to logger context
func WithSession(logger *slog.Logger, sessionID string) *slog.Logger {
	return logger.With("session_id", sessionID)
}

// WithCharacter adds the character id to logger context
func WithCharacter(logger *slog.Logger, characterID string) *slog.Logger {
	return logger.With("character_id", characterID)
}
