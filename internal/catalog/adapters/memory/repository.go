package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/errorfix/internal/catalog/domain"
	"github.com/dejobratic/errorfix/internal/catalog/ports"
)

// Repository serves an in-process catalog.
type Repository struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
}

// NewRepository returns a repository holding products. With no arguments it
// holds the seed catalog.
func NewRepository(products ...domain.Product) *Repository {
	if len(products) == 0 {
		products = SeedProducts()
	}
	r := &Repository{products: make(map[int64]domain.Product, len(products))}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &p, nil
}

// SeedProducts mirrors the rows inserted by the products migration.
func SeedProducts() []domain.Product {
	return []domain.Product{
		{
			ID: 1, Name: "Null Pointer Patch",
			Description: "Stops dereferencing nothing at the worst possible moment.",
			Price:       decimal.RequireFromString("10.00"), Category: "Runtime",
			Featured: true, InStock: true, Rating: 4.6, ReviewCount: 128,
			Images: []string{"https://picsum.photos/seed/npp1/600", "https://picsum.photos/seed/npp2/600"},
			Sizes:  []string{"Small", "Medium", "Extra Large"},
			Colors: []string{"red", "black"},
		},
		{
			ID: 2, Name: "Race Condition Resolver",
			Description: "Makes two goroutines agree on who went first.",
			Price:       decimal.RequireFromString("24.99"), Category: "Concurrency",
			Featured: true, InStock: true, Rating: 4.2, ReviewCount: 64,
			Images: []string{"https://picsum.photos/seed/rcr1/600"},
			Sizes:  []string{"Medium", "Extra Large"},
			Colors: []string{"blue", "white", "grey"},
		},
		{
			ID: 3, Name: "Off-By-One Eraser",
			Description: "Shifts every loop boundary exactly the right amount.",
			Price:       decimal.RequireFromString("7.50"), Category: "Logic",
			Featured: false, InStock: true, Rating: 3.9, ReviewCount: 211,
			Images: []string{"https://picsum.photos/seed/obo1/600"},
			Sizes:  []string{"Extra Small", "Small"},
			Colors: []string{"green", "yellow"},
		},
		{
			ID: 4, Name: "Memory Leak Plug",
			Description: "Returns borrowed bytes to their rightful owner.",
			Price:       decimal.RequireFromString("15.25"), Category: "Runtime",
			Featured: false, InStock: false, Rating: 4.8, ReviewCount: 37,
			Images: []string{"https://picsum.photos/seed/mlp1/600"},
			Sizes:  []string{"Small", "Medium"},
			Colors: []string{"silver"},
		},
	}
}
