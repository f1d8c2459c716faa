package kafka

import (
	"context"
	"log/slog"

	"github.com/dejobratic/errorfix/internal/checkout/domain"
)

// NoopEventBus logs purchase events instead of sending them to Kafka.
type NoopEventBus struct {
	logger *slog.Logger
}

func NewNoopEventBus(logger *slog.Logger) *NoopEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopEventBus{logger: logger}
}

func (n *NoopEventBus) PublishPurchaseCompleted(ctx context.Context, txn domain.Transaction) error {
	n.logger.DebugContext(ctx, "event::purchase_completed", "transaction_id", txn.ID)
	return nil
}

func (n *NoopEventBus) PublishPurchaseFailed(ctx context.Context, txn domain.Transaction, reason string) error {
	n.logger.DebugContext(ctx, "event::purchase_failed", "transaction_id", txn.ID, "reason", reason)
	return nil
}
