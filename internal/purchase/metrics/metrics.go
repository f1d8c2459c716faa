package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records client-side purchase attempts.
type Metrics struct {
	attemptsTotal   metric.Int64Counter
	attemptDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.attemptsTotal, err = meter.Int64Counter(
		"purchase_attempts_total",
		metric.WithDescription("Total number of purchase submissions by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create purchase_attempts_total counter: %w", err)
	}

	m.attemptDuration, err = meter.Float64Histogram(
		"purchase_attempt_duration_seconds",
		metric.WithDescription("Duration of purchase submissions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create purchase_attempt_duration histogram: %w", err)
	}

	return m, nil
}

// RecordAttempt counts one submission. outcome is one of "success",
// "rejected", "timeout" or "transport".
func (m *Metrics) RecordAttempt(ctx context.Context, outcome string, durationSeconds float64) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.attemptsTotal.Add(ctx, 1, attrs)
	m.attemptDuration.Record(ctx, durationSeconds, attrs)
}
