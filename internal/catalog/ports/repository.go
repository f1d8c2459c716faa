package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/errorfix/internal/catalog/domain"
)

var ErrNotFound = errors.New("product not found")

// ListFilter narrows a catalog listing. Zero values match everything.
type ListFilter struct {
	Category     string
	FeaturedOnly bool
}

func (f ListFilter) Matches(p domain.Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.FeaturedOnly && !p.Featured {
		return false
	}
	return true
}

type ProductRepository interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}
