package ports

import (
	"context"

	"github.com/dejobratic/errorfix/internal/checkout/domain"
)

// EventBus publishes purchase lifecycle events.
type EventBus interface {
	PublishPurchaseCompleted(ctx context.Context, txn domain.Transaction) error
	PublishPurchaseFailed(ctx context.Context, txn domain.Transaction, reason string) error
}
