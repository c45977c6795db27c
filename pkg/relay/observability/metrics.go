package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records relay metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEmit records an emission with its local and remote fan-out.
	RecordEmit(ctx context.Context, event string, listeners, targets int)

	// RecordDispatch records a dispatch attempt with its duration and error status.
	RecordDispatch(ctx context.Context, targetType string, duration time.Duration, err error)

	// RecordListenerError records a failed listener invocation.
	RecordListenerError(ctx context.Context, event string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	emits           metric.Int64Counter
	dispatches      metric.Int64Counter
	dispatchLatency metric.Float64Histogram
	dispatchErrors  metric.Int64Counter
	listenerErrors  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("relay")

	emits, err := meter.Int64Counter("relay.emits",
		metric.WithDescription("Number of emitted events"),
	)
	if err != nil {
		return nil, err
	}

	dispatches, err := meter.Int64Counter("relay.dispatch.attempts",
		metric.WithDescription("Number of remote dispatch attempts"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("relay.dispatch.latency_ms",
		metric.WithDescription("Remote dispatch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	dispatchErrors, err := meter.Int64Counter("relay.dispatch.errors",
		metric.WithDescription("Number of failed dispatch attempts"),
	)
	if err != nil {
		return nil, err
	}

	listenerErrors, err := meter.Int64Counter("relay.listener.errors",
		metric.WithDescription("Number of failed listener invocations"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		emits:           emits,
		dispatches:      dispatches,
		dispatchLatency: dispatchLatency,
		dispatchErrors:  dispatchErrors,
		listenerErrors:  listenerErrors,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEmit records an emission.
func (m *otelMetrics) RecordEmit(ctx context.Context, event string, listeners, targets int) {
	m.emits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.Int("listeners", listeners),
		attribute.Int("targets", targets),
	))
}

// RecordDispatch records a dispatch attempt.
func (m *otelMetrics) RecordDispatch(ctx context.Context, targetType string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("target_type", targetType),
	}

	m.dispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.dispatchErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordListenerError records a failed listener invocation.
func (m *otelMetrics) RecordListenerError(ctx context.Context, event string) {
	m.listenerErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
	))
}
