package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dejobratic/errorfix/internal/catalog/adapters/memory"
	"github.com/dejobratic/errorfix/internal/catalog/ports"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()

	t.Run("lists the seed catalog in id order", func(t *testing.T) {
		products, err := repo.List(ctx, ports.ListFilter{})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(products) != 4 {
			t.Fatalf("expected 4 products, got %d", len(products))
		}
		for i, p := range products {
			if p.ID != int64(i+1) {
				t.Errorf("position %d: expected id %d, got %d", i, i+1, p.ID)
			}
		}
	})

	t.Run("filters by category and featured", func(t *testing.T) {
		products, _ := repo.List(ctx, ports.ListFilter{Category: "Runtime", FeaturedOnly: true})
		if len(products) != 1 || products[0].Name != "Null Pointer Patch" {
			t.Errorf("unexpected products %+v", products)
		}
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 99)
		if !errors.Is(err, ports.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("returns a copy of the product", func(t *testing.T) {
		p, err := repo.GetByID(ctx, 1)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		p.Name = "changed"

		again, _ := repo.GetByID(ctx, 1)
		if again.Name != "Null Pointer Patch" {
			t.Errorf("expected stored product to be unchanged, got %s", again.Name)
		}
	})
}
