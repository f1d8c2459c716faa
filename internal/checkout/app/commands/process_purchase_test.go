package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/errorfix/internal/checkout/app/commands"
	"github.com/dejobratic/errorfix/internal/checkout/domain"
	"github.com/dejobratic/errorfix/internal/checkout/ports"
)

type statusUpdate struct {
	id     string
	status domain.Status
	reason string
}

type mockRepository struct {
	createFn       func(ctx context.Context, txn domain.Transaction) error
	updateStatusFn func(ctx context.Context, id string, status domain.Status, reason string) error
	created        []domain.Transaction
	updates        []statusUpdate
}

func (m *mockRepository) Create(ctx context.Context, txn domain.Transaction) error {
	m.created = append(m.created, txn)
	if m.createFn != nil {
		return m.createFn(ctx, txn)
	}
	return nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return nil, nil
}

func (m *mockRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Transaction, error) {
	return nil, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, reason string) error {
	m.updates = append(m.updates, statusUpdate{id: id, status: status, reason: reason})
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status, reason)
	}
	return nil
}

type mockEventBus struct {
	publishCompletedFn func(ctx context.Context, txn domain.Transaction) error
	completed          []string
	failed             []string
}

func (m *mockEventBus) PublishPurchaseCompleted(ctx context.Context, txn domain.Transaction) error {
	m.completed = append(m.completed, txn.ID)
	if m.publishCompletedFn != nil {
		return m.publishCompletedFn(ctx, txn)
	}
	return nil
}

func (m *mockEventBus) PublishPurchaseFailed(ctx context.Context, txn domain.Transaction, reason string) error {
	m.failed = append(m.failed, reason)
	return nil
}

type mockPayments struct {
	chargeFn func(ctx context.Context, charge ports.Charge) error
	charges  []ports.Charge
}

func (m *mockPayments) Charge(ctx context.Context, charge ports.Charge) error {
	m.charges = append(m.charges, charge)
	if m.chargeFn != nil {
		return m.chargeFn(ctx, charge)
	}
	return nil
}

func newHandler(repo *mockRepository, events *mockEventBus, payments *mockPayments) *commands.ProcessPurchaseCommandHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return commands.NewProcessPurchaseCommandHandler(repo, events, payments, logger)
}

func validCommand() commands.ProcessPurchaseCommand {
	return commands.ProcessPurchaseCommand{
		Customer: "ada@errorfix.io",
		Items: []commands.LineItem{
			{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			{ProductID: 3, Quantity: 1, UnitPrice: decimal.RequireFromString("40.37")},
		},
		TotalAmount: decimal.RequireFromString("60.37"),
		CardNumber:  "4242424242424242",
	}
}

func TestProcessPurchase(t *testing.T) {
	t.Run("charges and completes a valid purchase", func(t *testing.T) {
		repo := &mockRepository{}
		events := &mockEventBus{}
		payments := &mockPayments{}

		txn, err := newHandler(repo, events, payments).Handle(context.Background(), validCommand())

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if txn.ID == "" {
			t.Error("expected transaction ID to be generated")
		}
		if txn.Status != domain.StatusCompleted {
			t.Errorf("expected status %s, got %s", domain.StatusCompleted, txn.Status)
		}
		if txn.AmountCents != 6037 {
			t.Errorf("expected 6037 cents, got %d", txn.AmountCents)
		}
		if txn.ItemCount != 2 {
			t.Errorf("expected item count 2, got %d", txn.ItemCount)
		}

		if len(repo.created) != 1 || repo.created[0].Status != domain.StatusProcessing {
			t.Errorf("expected one processing transaction to be created, got %+v", repo.created)
		}
		if len(payments.charges) != 1 || payments.charges[0].TransactionID != txn.ID {
			t.Errorf("expected one charge for %s, got %+v", txn.ID, payments.charges)
		}
		if len(repo.updates) != 1 || repo.updates[0].status != domain.StatusCompleted {
			t.Errorf("expected completed status update, got %+v", repo.updates)
		}
		if len(events.completed) != 1 {
			t.Errorf("expected one completion event, got %d", len(events.completed))
		}
	})

	t.Run("rejects invalid commands before touching storage", func(t *testing.T) {
		tests := []struct {
			name    string
			mutate  func(*commands.ProcessPurchaseCommand)
			wantErr error
			wantMsg string
		}{
			{
				name:    "empty cart",
				mutate:  func(c *commands.ProcessPurchaseCommand) { c.Items = nil },
				wantErr: domain.ErrNoItems,
			},
			{
				name:    "zero total",
				mutate:  func(c *commands.ProcessPurchaseCommand) { c.TotalAmount = decimal.Zero },
				wantErr: domain.ErrMissingPaymentDetails,
			},
			{
				name:    "total below half a cent",
				mutate:  func(c *commands.ProcessPurchaseCommand) { c.TotalAmount = decimal.RequireFromString("0.004") },
				wantErr: domain.ErrMissingPaymentDetails,
			},
			{
				name:    "missing card",
				mutate:  func(c *commands.ProcessPurchaseCommand) { c.CardNumber = "  " },
				wantErr: domain.ErrMissingPaymentDetails,
			},
			{
				name:    "missing customer",
				mutate:  func(c *commands.ProcessPurchaseCommand) { c.Customer = "" },
				wantMsg: "customer is required",
			},
			{
				name:    "non positive quantity",
				mutate:  func(c *commands.ProcessPurchaseCommand) { c.Items[0].Quantity = 0 },
				wantMsg: "quantity for product 1 must be positive",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := &mockRepository{}
				payments := &mockPayments{}
				cmd := validCommand()
				tt.mutate(&cmd)

				txn, err := newHandler(repo, &mockEventBus{}, payments).Handle(context.Background(), cmd)

				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if tt.wantMsg != "" && err.Error() != tt.wantMsg {
					t.Errorf("expected error %q, got %q", tt.wantMsg, err.Error())
				}
				if txn != nil {
					t.Errorf("expected nil transaction, got %+v", txn)
				}
				if len(repo.created) != 0 || len(payments.charges) != 0 {
					t.Error("expected no storage or payment calls")
				}
			})
		}
	})

	t.Run("marks the transaction failed when the card is declined", func(t *testing.T) {
		repo := &mockRepository{}
		events := &mockEventBus{}
		payments := &mockPayments{
			chargeFn: func(ctx context.Context, charge ports.Charge) error {
				return &domain.DeclinedError{Reason: "Card declined"}
			},
		}

		txn, err := newHandler(repo, events, payments).Handle(context.Background(), validCommand())

		if !errors.Is(err, domain.ErrPaymentDeclined) {
			t.Fatalf("expected ErrPaymentDeclined, got %v", err)
		}
		if txn == nil {
			t.Fatal("expected failed transaction to be returned")
		}
		if txn.Status != domain.StatusFailed || txn.FailureReason != "Card declined" {
			t.Errorf("unexpected transaction %+v", txn)
		}
		if len(repo.updates) != 1 || repo.updates[0].reason != "Card declined" {
			t.Errorf("expected failed status update, got %+v", repo.updates)
		}
		if len(events.failed) != 1 || len(events.completed) != 0 {
			t.Errorf("expected only a failure event, got completed=%v failed=%v", events.completed, events.failed)
		}
	})

	t.Run("records the failure even when the request context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		repo := &mockRepository{
			updateStatusFn: func(ctx context.Context, id string, status domain.Status, reason string) error {
				return ctx.Err()
			},
		}
		payments := &mockPayments{
			chargeFn: func(ctx context.Context, charge ports.Charge) error {
				cancel()
				return ctx.Err()
			},
		}

		txn, err := newHandler(repo, &mockEventBus{}, payments).Handle(ctx, validCommand())

		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if txn == nil || txn.Status != domain.StatusFailed {
			t.Errorf("expected failed transaction, got %+v", txn)
		}
		if len(repo.updates) != 1 {
			t.Errorf("expected status update to be attempted, got %d", len(repo.updates))
		}
	})

	t.Run("returns error when repository create fails", func(t *testing.T) {
		repoErr := errors.New("database connection failed")
		repo := &mockRepository{
			createFn: func(ctx context.Context, txn domain.Transaction) error { return repoErr },
		}
		payments := &mockPayments{}

		txn, err := newHandler(repo, &mockEventBus{}, payments).Handle(context.Background(), validCommand())

		if !errors.Is(err, repoErr) {
			t.Errorf("expected repository error, got: %v", err)
		}
		if txn != nil {
			t.Errorf("expected nil transaction, got %+v", txn)
		}
		if len(payments.charges) != 0 {
			t.Error("expected card not to be charged")
		}
	})

	t.Run("returns transaction even when event publishing fails", func(t *testing.T) {
		events := &mockEventBus{
			publishCompletedFn: func(ctx context.Context, txn domain.Transaction) error {
				return errors.New("kafka unavailable")
			},
		}

		txn, err := newHandler(&mockRepository{}, events, &mockPayments{}).Handle(context.Background(), validCommand())

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if txn == nil || txn.Status != domain.StatusCompleted {
			t.Errorf("expected completed transaction, got %+v", txn)
		}
	})
}
