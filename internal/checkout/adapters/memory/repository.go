package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dejobratic/errorfix/internal/checkout/domain"
	"github.com/dejobratic/errorfix/internal/checkout/ports"
)

// Repository keeps transactions in process memory for local runs and tests.
type Repository struct {
	mu           sync.RWMutex
	transactions map[string]domain.Transaction
}

func NewRepository() *Repository {
	return &Repository{transactions: make(map[string]domain.Transaction)}
}

func (r *Repository) Create(_ context.Context, txn domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions[txn.ID] = txn
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	txn, ok := r.transactions[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &txn, nil
}

// List returns matching transactions, newest first.
func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filter = filter.Normalize()

	var matched []domain.Transaction
	for _, txn := range r.transactions {
		if filter.Status != nil && txn.Status != *filter.Status {
			continue
		}
		if filter.Customer != "" && txn.Customer != filter.Customer {
			continue
		}
		matched = append(matched, txn)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := (filter.Page - 1) * filter.PageSize
	if start >= len(matched) {
		return []domain.Transaction{}, nil
	}
	end := min(start+filter.PageSize, len(matched))

	page := make([]domain.Transaction, end-start)
	copy(page, matched[start:end])
	return page, nil
}

func (r *Repository) UpdateStatus(_ context.Context, id string, status domain.Status, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn, ok := r.transactions[id]
	if !ok {
		return ports.ErrNotFound
	}

	txn.Status = status
	txn.FailureReason = reason
	txn.UpdatedAt = time.Now().UTC()
	r.transactions[id] = txn
	return nil
}
