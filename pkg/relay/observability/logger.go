// Package observability provides structured logging, metrics, and
// tracing for relay: emissions, listener failures, and remote dispatch.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
)

// LogEmit logs an emission and its fan-out counts.
func LogEmit(logger *slog.Logger, event string, listeners, targets int) {
	if logger == nil {
		return
	}
	logger.Debug("event emitted",
		slog.String("event", event),
		slog.Int("listeners", listeners),
		slog.Int("targets", targets),
	)
}

// LogListenerError logs a failed listener invocation (non-fatal).
func LogListenerError(logger *slog.Logger, event string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("listener failed",
		slog.String("event", event),
		slog.String("error", err.Error()),
	)
}

// LogDispatch logs a completed dispatch attempt.
func LogDispatch(logger *slog.Logger, event, targetType, address string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("event dispatched",
		slog.String("event", event),
		slog.String("target_type", targetType),
		slog.String("address", address),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogDispatchError logs a failed dispatch attempt (non-fatal).
func LogDispatchError(logger *slog.Logger, event, targetType, address string, err error) {
	if logger == nil {
		return
	}
	logger.Error("dispatch failed",
		slog.String("event", event),
		slog.String("target_type", targetType),
		slog.String("address", address),
		slog.String("error", err.Error()),
	)
}
