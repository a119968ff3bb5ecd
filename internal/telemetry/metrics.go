package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/moodroute/moodroute/internal/telemetry"

// ProviderMetrics counts upstream calls per provider and operation, and the
// enrichment failures the planner tolerated.
type ProviderMetrics struct {
	latency  metric.Float64Histogram
	calls    metric.Int64Counter
	degraded metric.Int64Counter
}

// NewProviderMetrics registers the instruments on the global meter provider.
func NewProviderMetrics() (*ProviderMetrics, error) {
	meter := otel.Meter(meterName)

	var m ProviderMetrics
	var latencyErr, callsErr, degradedErr error
	m.latency, latencyErr = meter.Float64Histogram("provider.request.duration",
		metric.WithDescription("Latency of upstream provider calls in seconds"), metric.WithUnit("s"))
	m.calls, callsErr = meter.Int64Counter("provider.request.total",
		metric.WithDescription("Upstream provider calls"), metric.WithUnit("{request}"))
	m.degraded, degradedErr = meter.Int64Counter("planner.degraded.total",
		metric.WithDescription("Enrichment failures tolerated while planning an itinerary"), metric.WithUnit("{failure}"))

	if err := errors.Join(latencyErr, callsErr, degradedErr); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordRequest records one upstream call. A non-nil err marks it failed.
func (m *ProviderMetrics) RecordRequest(provider, operation string, elapsed time.Duration, err error) {
	opts := metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
		attribute.Bool("error", err != nil),
	)

	// Called after the request context may have been cancelled.
	ctx := context.Background()
	m.latency.Record(ctx, elapsed.Seconds(), opts)
	m.calls.Add(ctx, 1, opts)
}

// RecordDegraded counts a tolerated enrichment failure for phase.
func (m *ProviderMetrics) RecordDegraded(phase string) {
	m.degraded.Add(context.Background(), 1, metric.WithAttributes(attribute.String("planner.phase", phase)))
}
