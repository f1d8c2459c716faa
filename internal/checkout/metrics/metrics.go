package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	purchasesProcessedTotal metric.Int64Counter
	purchaseDuration        metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.purchasesProcessedTotal, err = meter.Int64Counter(
		"purchases_processed_total",
		metric.WithDescription("Total number of purchases processed by outcome"),
		metric.WithUnit("{purchase}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create purchases_processed_total counter: %w", err)
	}

	m.purchaseDuration, err = meter.Float64Histogram(
		"purchase_processing_duration_seconds",
		metric.WithDescription("Duration of purchase processing including the payment charge"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create purchase_processing_duration histogram: %w", err)
	}

	return m, nil
}

// RecordPurchaseProcessed counts one purchase. status is "completed",
// "declined" or "error".
func (m *Metrics) RecordPurchaseProcessed(ctx context.Context, status string) {
	m.purchasesProcessedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordPurchaseDuration(ctx context.Context, durationSeconds float64) {
	m.purchaseDuration.Record(ctx, durationSeconds)
}
