package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/errorfix/internal/checkout/domain"
	"github.com/dejobratic/errorfix/internal/checkout/ports"
	"github.com/dejobratic/errorfix/internal/database"
	"github.com/dejobratic/errorfix/internal/telemetry"
)

type ObservableRepository struct {
	repo    ports.TransactionRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.TransactionRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{repo: repo, metrics: metrics}
}

func (r *ObservableRepository) Create(ctx context.Context, txn domain.Transaction) error {
	ctx, span := telemetry.StartSpan(ctx, "TransactionRepository.Create")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("transaction.id", txn.ID),
		attribute.String("operation", "create"),
	)

	start := time.Now()
	err := r.repo.Create(ctx, txn)
	r.metrics.RecordQuery(ctx, "create_transaction", time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (r *ObservableRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "TransactionRepository.GetByID",
		attribute.String("transaction.id", id),
		attribute.String("operation", "get_by_id"),
	)
	defer span.End()

	start := time.Now()
	txn, err := r.repo.GetByID(ctx, id)
	r.metrics.RecordQuery(ctx, "get_transaction_by_id", time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err, ports.ErrNotFound)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return txn, nil
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "TransactionRepository.List")
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("operation", "list"),
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
	}
	telemetry.AddSpanAttributes(span, attrs...)

	start := time.Now()
	txns, err := r.repo.List(ctx, filter)
	r.metrics.RecordQuery(ctx, "list_transactions", time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(txns)))
	telemetry.SetSpanSuccess(span)
	return txns, nil
}

func (r *ObservableRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, "TransactionRepository.UpdateStatus")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("transaction.id", id),
		attribute.String("transaction.new_status", string(status)),
		attribute.String("operation", "update_status"),
	)

	start := time.Now()
	err := r.repo.UpdateStatus(ctx, id, status, reason)
	r.metrics.RecordQuery(ctx, "update_transaction_status", time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
