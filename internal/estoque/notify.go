package estoque

import (
	"context"
	"log/slog"
)

// Severity grades a user-facing notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier receives the messages the engine emits on failure and
// soft-cap paths. Rendering them is entirely the caller's concern.
type Notifier interface {
	Notify(ctx context.Context, message string, severity Severity)
}

// LogNotifier routes notifications to the structured log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, message string, severity Severity) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch severity {
	case SeverityWarning:
		logger.WarnContext(ctx, message, "severity", severity)
	case SeverityError:
		logger.ErrorContext(ctx, message, "severity", severity)
	default:
		logger.InfoContext(ctx, message, "severity", severity)
	}
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, Severity) {}
