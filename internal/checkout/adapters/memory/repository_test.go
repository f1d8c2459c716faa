package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/errorfix/internal/checkout/adapters/memory"
	"github.com/dejobratic/errorfix/internal/checkout/domain"
	"github.com/dejobratic/errorfix/internal/checkout/ports"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Now().UTC()

	seed := func(t *testing.T) *memory.Repository {
		t.Helper()
		repo := memory.NewRepository()
		for i, customer := range []string{"ada@errorfix.io", "ada@errorfix.io", "bob@errorfix.io"} {
			txn := domain.Transaction{
				ID:          string(rune('a' + i)),
				Customer:    customer,
				AmountCents: 1000,
				ItemCount:   1,
				Status:      domain.StatusProcessing,
				CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			}
			require.NoError(t, repo.Create(ctx, txn))
		}
		return repo
	}

	t.Run("gets a created transaction", func(t *testing.T) {
		repo := seed(t)
		txn, err := repo.GetByID(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "ada@errorfix.io", txn.Customer)
	})

	t.Run("returns not found for unknown ids", func(t *testing.T) {
		repo := seed(t)
		_, err := repo.GetByID(ctx, "zzz")
		assert.True(t, errors.Is(err, ports.ErrNotFound))
		assert.ErrorIs(t, repo.UpdateStatus(ctx, "zzz", domain.StatusCompleted, ""), ports.ErrNotFound)
	})

	t.Run("updates status and reason", func(t *testing.T) {
		repo := seed(t)
		require.NoError(t, repo.UpdateStatus(ctx, "b", domain.StatusFailed, "Card declined"))
		txn, _ := repo.GetByID(ctx, "b")
		assert.Equal(t, domain.StatusFailed, txn.Status)
		assert.Equal(t, "Card declined", txn.FailureReason)
		assert.False(t, txn.UpdatedAt.IsZero())
	})

	t.Run("lists newest first with filters and pages", func(t *testing.T) {
		repo := seed(t)
		require.NoError(t, repo.UpdateStatus(ctx, "a", domain.StatusCompleted, ""))

		all, err := repo.List(ctx, ports.ListFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, ids(all))

		mine, _ := repo.List(ctx, ports.ListFilter{Customer: "ada@errorfix.io"})
		assert.Equal(t, []string{"b", "a"}, ids(mine))

		completed := domain.StatusCompleted
		done, _ := repo.List(ctx, ports.ListFilter{Status: &completed})
		assert.Equal(t, []string{"a"}, ids(done))

		page, _ := repo.List(ctx, ports.ListFilter{Page: 2, PageSize: 2})
		assert.Equal(t, []string{"a"}, ids(page))

		beyond, _ := repo.List(ctx, ports.ListFilter{Page: 5, PageSize: 2})
		assert.Empty(t, beyond)
	})
}

func ids(txns []domain.Transaction) []string {
	out := make([]string, 0, len(txns))
	for _, txn := range txns {
		out = append(out, txn.ID)
	}
	return out
}
