package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dejobratic/errorfix/internal/checkout/domain"
	"github.com/dejobratic/errorfix/internal/checkout/ports"
)

// LineItem is one purchased cart line.
type LineItem struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

type ProcessPurchaseCommand struct {
	Customer    string
	Items       []LineItem
	TotalAmount decimal.Decimal
	CardNumber  string
}

func (c ProcessPurchaseCommand) Validate() error {
	if len(c.Items) == 0 {
		return domain.ErrNoItems
	}
	if domain.ToCents(c.TotalAmount) <= 0 || strings.TrimSpace(c.CardNumber) == "" {
		return domain.ErrMissingPaymentDetails
	}
	if strings.TrimSpace(c.Customer) == "" {
		return errors.New("customer is required")
	}
	for _, item := range c.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("quantity for product %d must be positive", item.ProductID)
		}
	}
	return nil
}

type CommandHandler interface {
	Handle(ctx context.Context, cmd ProcessPurchaseCommand) (*domain.Transaction, error)
}

// ProcessPurchaseCommandHandler records the transaction, charges it and
// publishes the outcome.
type ProcessPurchaseCommandHandler struct {
	repo     ports.TransactionRepository
	events   ports.EventBus
	payments ports.PaymentProcessor
	logger   *slog.Logger
}

func NewProcessPurchaseCommandHandler(
	repo ports.TransactionRepository,
	events ports.EventBus,
	payments ports.PaymentProcessor,
	logger *slog.Logger,
) *ProcessPurchaseCommandHandler {
	return &ProcessPurchaseCommandHandler{
		repo:     repo,
		events:   events,
		payments: payments,
		logger:   logger,
	}
}

// Handle returns the transaction together with the charge error when the
// payment fails, so callers can report the failed transaction id.
func (h *ProcessPurchaseCommandHandler) Handle(ctx context.Context, cmd ProcessPurchaseCommand) (*domain.Transaction, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn := domain.Transaction{
		ID:          uuid.NewString(),
		Customer:    cmd.Customer,
		AmountCents: domain.ToCents(cmd.TotalAmount),
		ItemCount:   len(cmd.Items),
		Status:      domain.StatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, txn); err != nil {
		return nil, err
	}

	chargeErr := h.payments.Charge(ctx, ports.Charge{
		TransactionID: txn.ID,
		AmountCents:   txn.AmountCents,
		CardNumber:    cmd.CardNumber,
	})
	if chargeErr != nil {
		return h.fail(ctx, txn, chargeErr)
	}

	if err := h.repo.UpdateStatus(ctx, txn.ID, domain.StatusCompleted, ""); err != nil {
		return nil, fmt.Errorf("charged transaction %s but failed to mark it completed: %w", txn.ID, err)
	}
	txn.Status = domain.StatusCompleted
	txn.UpdatedAt = time.Now().UTC()

	if err := h.events.PublishPurchaseCompleted(ctx, txn); err != nil {
		h.logger.ErrorContext(ctx, "purchase completed but event was not published",
			"transaction_id", txn.ID,
			"error", err,
		)
	}

	return &txn, nil
}

func (h *ProcessPurchaseCommandHandler) fail(ctx context.Context, txn domain.Transaction, chargeErr error) (*domain.Transaction, error) {
	reason := chargeErr.Error()
	var declined *domain.DeclinedError
	if errors.As(chargeErr, &declined) {
		reason = declined.Reason
	}

	// The request context may already be done; record the failure regardless.
	cleanupCtx := context.WithoutCancel(ctx)

	if err := h.repo.UpdateStatus(cleanupCtx, txn.ID, domain.StatusFailed, reason); err != nil {
		h.logger.ErrorContext(ctx, "failed to mark transaction failed", "transaction_id", txn.ID, "error", err)
	}
	txn.Status = domain.StatusFailed
	txn.FailureReason = reason
	txn.UpdatedAt = time.Now().UTC()

	if err := h.events.PublishPurchaseFailed(cleanupCtx, txn, reason); err != nil {
		h.logger.ErrorContext(ctx, "failed to publish purchase failure", "transaction_id", txn.ID, "error", err)
	}

	return &txn, chargeErr
}
