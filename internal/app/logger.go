package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the process logger: JSON when LOG_FORMAT=json,
// human-readable text otherwise.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
