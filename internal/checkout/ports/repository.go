package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/errorfix/internal/checkout/domain"
)

// TransactionRepository exposes persistence operations required by the application layer.
type TransactionRepository interface {
	Create(ctx context.Context, txn domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Transaction, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status, reason string) error
}

// ListFilter narrows list queries by status, customer and page. Pages are 1-based.
type ListFilter struct {
	Status   *domain.Status
	Customer string
	Page     int
	PageSize int
}

const DefaultPageSize = 20

// Normalize fills in the default page and page size.
func (f ListFilter) Normalize() ListFilter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	return f
}

var ErrNotFound = errors.New("transaction not found")
