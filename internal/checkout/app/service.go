package app

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/errorfix/internal/checkout/app/commands"
	"github.com/dejobratic/errorfix/internal/checkout/app/queries"
	"github.com/dejobratic/errorfix/internal/checkout/domain"
	"github.com/dejobratic/errorfix/internal/checkout/metrics"
	"github.com/dejobratic/errorfix/internal/checkout/ports"
)

// Service bundles the checkout use cases exposed over the API.
type Service struct {
	repo                   ports.TransactionRepository
	idemStore              ports.IdempotencyStore
	processPurchaseHandler commands.CommandHandler
	getTransactionHandler  *queries.GetTransactionQueryHandler
}

func NewService(
	repo ports.TransactionRepository,
	events ports.EventBus,
	idem ports.IdempotencyStore,
	payments ports.PaymentProcessor,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *Service {
	coreHandler := commands.NewProcessPurchaseCommandHandler(repo, events, payments, logger)
	observableHandler := commands.NewObservableCommandHandler(coreHandler, logger, metrics)

	return &Service{
		repo:                   repo,
		idemStore:              idem,
		processPurchaseHandler: observableHandler,
		getTransactionHandler:  queries.NewGetTransactionQueryHandler(repo),
	}
}

// PurchaseInput is the validated purchase payload.
type PurchaseInput struct {
	Customer    string
	Items       []commands.LineItem
	TotalAmount decimal.Decimal
	CardNumber  string
}

// ProcessPurchase charges the cart and records the transaction.
func (s *Service) ProcessPurchase(ctx context.Context, input PurchaseInput) (*domain.Transaction, error) {
	return s.processPurchaseHandler.Handle(ctx, commands.ProcessPurchaseCommand{
		Customer:    input.Customer,
		Items:       input.Items,
		TotalAmount: input.TotalAmount,
		CardNumber:  input.CardNumber,
	})
}

// GetTransaction returns the transaction with id if it belongs to customer.
func (s *Service) GetTransaction(ctx context.Context, id, customer string) (*domain.Transaction, error) {
	return s.getTransactionHandler.Handle(ctx, queries.GetTransactionQuery{TransactionID: id, Customer: customer})
}

// ListTransactions returns transactions using a filter.
func (s *Service) ListTransactions(ctx context.Context, filter ports.ListFilter) ([]domain.Transaction, error) {
	return s.repo.List(ctx, filter)
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}

// ReserveIdempotencyKey claims key for a purchase about to run.
func (s *Service) ReserveIdempotencyKey(ctx context.Context, key string) (bool, error) {
	return s.idemStore.Reserve(ctx, key)
}

// ReleaseIdempotencyKey frees a reservation that produced no stored response.
func (s *Service) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return s.idemStore.Release(ctx, key)
}
