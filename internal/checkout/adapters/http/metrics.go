package http

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Idempotency outcomes for purchases that reuse a key.
const (
	IdempotencyReplayed = "replayed"
	IdempotencyInFlight = "in_flight"
)

// Metrics records storefront API traffic. Routes are collapsed by routeOf so
// product and transaction ids never become label values.
type Metrics struct {
	requestDuration metric.Float64Histogram
	requests        metric.Int64Counter
	idempotency     metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestDuration, err := meter.Float64Histogram(
		"storefront_api_request_duration_seconds",
		metric.WithDescription("Storefront API request latency by route"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.025, 0.1, 0.5, 1, 2, 5),
	)
	if err != nil {
		return nil, fmt.Errorf("create request duration histogram: %w", err)
	}

	requests, err := meter.Int64Counter(
		"storefront_api_requests_total",
		metric.WithDescription("Storefront API requests by route and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create request counter: %w", err)
	}

	idempotency, err := meter.Int64Counter(
		"storefront_purchase_idempotency_total",
		metric.WithDescription("Purchases answered from an Idempotency-Key instead of a new charge"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create idempotency counter: %w", err)
	}

	return &Metrics{requestDuration: requestDuration, requests: requests, idempotency: idempotency}, nil
}

func (m *Metrics) RecordRequest(ctx context.Context, method, route string, statusCode int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status_code", statusCode),
	)
	m.requests.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, durationSeconds, attrs)
}

// RecordIdempotency counts a purchase that reused a key, by outcome.
func (m *Metrics) RecordIdempotency(ctx context.Context, outcome string) {
	m.idempotency.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
