package adapters

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/errorfix/internal/purchase/domain"
	"github.com/dejobratic/errorfix/internal/purchase/metrics"
	"github.com/dejobratic/errorfix/internal/purchase/ports"
	"github.com/dejobratic/errorfix/internal/telemetry"
)

// ObservableSubmitter wraps a Submitter with a span, logs and attempt metrics.
type ObservableSubmitter struct {
	next    ports.Submitter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableSubmitter(next ports.Submitter, logger *slog.Logger, m *metrics.Metrics) *ObservableSubmitter {
	return &ObservableSubmitter{next: next, logger: logger, metrics: m}
}

func (o *ObservableSubmitter) Submit(ctx context.Context, req domain.Request, bearer, idempotencyKey string) (domain.Receipt, error) {
	ctx, span := telemetry.StartSpan(ctx, "PurchaseSubmitter.Submit")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int("purchase.line_count", len(req.Items)),
		attribute.String("purchase.total_amount", req.TotalAmount.String()),
		attribute.String("purchase.idempotency_key", idempotencyKey),
	)

	start := time.Now()
	receipt, err := o.next.Submit(ctx, req, bearer, idempotencyKey)
	o.metrics.RecordAttempt(ctx, outcomeOf(err), time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.WarnContext(ctx, "purchase submission failed",
			"error", err,
			"idempotency_key", idempotencyKey,
		)
		return domain.Receipt{}, err
	}

	telemetry.AddSpanAttributes(span, attribute.String("purchase.transaction_id", receipt.TransactionID))
	telemetry.SetSpanSuccess(span)
	o.logger.DebugContext(ctx, "purchase submitted", "transaction_id", receipt.TransactionID)

	return receipt, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrPurchaseRejected):
		return "rejected"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "transport"
	}
}
