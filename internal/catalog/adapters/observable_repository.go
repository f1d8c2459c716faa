package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/errorfix/internal/catalog/domain"
	"github.com/dejobratic/errorfix/internal/catalog/ports"
	"github.com/dejobratic/errorfix/internal/database"
	"github.com/dejobratic/errorfix/internal/telemetry"
)

type ObservableRepository struct {
	repo    ports.ProductRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.ProductRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{repo: repo, metrics: metrics}
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "ProductRepository.List")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("operation", "list"),
		attribute.String("filter.category", filter.Category),
		attribute.Bool("filter.featured_only", filter.FeaturedOnly),
	)

	start := time.Now()
	products, err := r.repo.List(ctx, filter)
	r.metrics.RecordQuery(ctx, "list_products", time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(products)))
	telemetry.SetSpanSuccess(span)
	return products, nil
}

func (r *ObservableRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "ProductRepository.GetByID",
		attribute.Int64("product.id", id),
		attribute.String("operation", "get_by_id"),
	)
	defer span.End()

	start := time.Now()
	product, err := r.repo.GetByID(ctx, id)
	r.metrics.RecordQuery(ctx, "get_product_by_id", time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err, ports.ErrNotFound)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return product, nil
}
