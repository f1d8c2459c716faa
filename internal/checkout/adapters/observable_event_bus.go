package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/errorfix/internal/checkout/domain"
	"github.com/dejobratic/errorfix/internal/checkout/ports"
	"github.com/dejobratic/errorfix/internal/kafka"
	"github.com/dejobratic/errorfix/internal/telemetry"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *kafka.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *kafka.Metrics) *ObservableEventBus {
	return &ObservableEventBus{bus: bus, metrics: metrics}
}

func (e *ObservableEventBus) PublishPurchaseCompleted(ctx context.Context, txn domain.Transaction) error {
	return e.observe(ctx, "EventBus.PublishPurchaseCompleted", kafka.TopicPurchaseCompleted, txn, "",
		func(ctx context.Context) error { return e.bus.PublishPurchaseCompleted(ctx, txn) })
}

func (e *ObservableEventBus) PublishPurchaseFailed(ctx context.Context, txn domain.Transaction, reason string) error {
	return e.observe(ctx, "EventBus.PublishPurchaseFailed", kafka.TopicPurchaseFailed, txn, reason,
		func(ctx context.Context) error { return e.bus.PublishPurchaseFailed(ctx, txn, reason) })
}

func (e *ObservableEventBus) observe(
	ctx context.Context,
	spanName, topic string,
	txn domain.Transaction,
	reason string,
	publish func(context.Context) error,
) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("transaction.id", txn.ID),
		attribute.String("event.type", topic),
		attribute.String("topic", topic),
	}
	if reason != "" {
		attrs = append(attrs, attribute.String("failure.reason", reason))
	}
	telemetry.AddSpanAttributes(span, attrs...)

	start := time.Now()
	err := publish(ctx)
	e.metrics.RecordPublish(ctx, topic, time.Since(start).Seconds(), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
