// Package app holds the Cart Store: the observable, persisted container for
// the shopper's cart.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/errorfix/internal/cart/domain"
	"github.com/dejobratic/errorfix/internal/observe"
	"github.com/dejobratic/errorfix/internal/storage"
)

// ErrPersist wraps failures to write the cart snapshot. The in-memory cart is
// left unchanged when it is returned.
var ErrPersist = errors.New("persist cart")

// Snapshot is the view handed to subscribers and readers.
type Snapshot struct {
	Lines      []domain.CartLine
	ItemCount  int
	TotalPrice decimal.Decimal
}

// Store guards the cart and writes every mutation through to storage.
type Store struct {
	mu      sync.Mutex
	cart    *domain.Cart
	storage storage.Store
	logger  *slog.Logger
	subject observe.Subject[Snapshot]
}

// NewStore returns an empty cart store persisting into st.
func NewStore(st storage.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cart:    domain.New(),
		storage: st,
		logger:  logger,
	}
}

// Restore replaces the in-memory cart with the persisted snapshot. A missing
// snapshot yields an empty cart. An unreadable snapshot is logged and
// discarded.
func (s *Store) Restore(ctx context.Context) error {
	data, err := s.storage.Get(ctx, storage.CartKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore cart: %w", err)
	}

	restored, err := decodeCart(data)
	if err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable cart snapshot", "error", err)
		restored = domain.New()
	}

	s.mu.Lock()
	s.cart = restored
	snap := snapshotOf(restored)
	s.mu.Unlock()

	s.subject.Notify(snap)
	return nil
}

// AddItem merges line into the cart by its key. A non-positive quantity is a no-op.
func (s *Store) AddItem(ctx context.Context, line domain.CartLine) error {
	return s.mutate(ctx, "add item", func(c *domain.Cart) bool {
		return c.Add(line)
	})
}

// UpdateQuantity sets the quantity of the keyed line; quantity <= 0 removes it.
func (s *Store) UpdateQuantity(ctx context.Context, key domain.LineKey, quantity int) error {
	return s.mutate(ctx, "update quantity", func(c *domain.Cart) bool {
		return c.UpdateQuantity(key, quantity)
	})
}

// RemoveItem deletes the keyed line if present.
func (s *Store) RemoveItem(ctx context.Context, key domain.LineKey) error {
	return s.mutate(ctx, "remove item", func(c *domain.Cart) bool {
		return c.Remove(key)
	})
}

// Clear empties the cart. The empty snapshot is always written.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", func(c *domain.Cart) bool {
		c.Clear()
		return true
	})
}

// Snapshot returns the current lines and derived totals.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.cart)
}

func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalPrice()
}

// Subscribe registers fn for every committed change and returns an unsubscribe func.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	return s.subject.Subscribe(fn)
}

// mutate applies fn to a copy of the cart, persists the copy and only then
// commits it. Subscribers are notified after the lock is released.
func (s *Store) mutate(ctx context.Context, op string, fn func(*domain.Cart) bool) error {
	s.mu.Lock()
	next := s.cart.Clone()
	if !fn(next) {
		s.mu.Unlock()
		return nil
	}

	data, err := encodeCart(next)
	if err == nil {
		err = s.storage.Put(ctx, storage.CartKey, data)
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "failed to persist cart", "operation", op, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrPersist, op, err)
	}

	s.cart = next
	snap := snapshotOf(next)
	s.mu.Unlock()

	s.subject.Notify(snap)
	return nil
}

func snapshotOf(c *domain.Cart) Snapshot {
	return Snapshot{
		Lines:      c.Lines(),
		ItemCount:  c.ItemCount(),
		TotalPrice: c.TotalPrice(),
	}
}
