package commands

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/errorfix/internal/checkout/domain"
	"github.com/dejobratic/errorfix/internal/checkout/metrics"
	"github.com/dejobratic/errorfix/internal/telemetry"
)

type ObservableCommandHandler struct {
	handler CommandHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCommandHandler(handler CommandHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCommandHandler {
	return &ObservableCommandHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCommandHandler) Handle(ctx context.Context, cmd ProcessPurchaseCommand) (*domain.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "ProcessPurchaseCommand.Handle")
	defer span.End()

	start := time.Now()
	status := "error"
	defer func() {
		o.metrics.RecordPurchaseDuration(ctx, time.Since(start).Seconds())
		o.metrics.RecordPurchaseProcessed(ctx, status)
	}()

	o.logger.InfoContext(ctx, "processing purchase",
		"customer", cmd.Customer,
		"line_count", len(cmd.Items),
		"total_amount", cmd.TotalAmount.String(),
	)

	txn, err := o.handler.Handle(ctx, cmd)

	if txn != nil {
		telemetry.AddSpanAttributes(span,
			attribute.String("transaction.id", txn.ID),
			attribute.Int64("transaction.amount_cents", txn.AmountCents),
			attribute.Int("transaction.item_count", txn.ItemCount),
			attribute.String("transaction.status", string(txn.Status)),
		)
	}

	if err != nil {
		if txn != nil && txn.Status == domain.StatusFailed {
			status = "declined"
			telemetry.AddSpanEvent(span, "payment.declined", attribute.String("reason", txn.FailureReason))
		}
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to process purchase",
			"error", err,
			"customer", cmd.Customer,
		)
		return txn, err
	}

	o.logger.InfoContext(ctx, "purchase processed successfully",
		"transaction_id", txn.ID,
		"customer", txn.Customer,
	)

	status = "completed"
	telemetry.SetSpanSuccess(span)

	return txn, nil
}
