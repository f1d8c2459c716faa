package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	cataloghttp "github.com/dejobratic/errorfix/internal/catalog/adapters/http"
	"github.com/dejobratic/errorfix/internal/catalog/adapters/memory"
	"github.com/dejobratic/errorfix/internal/catalog/ports"
)

func TestClient(t *testing.T) {
	ctx := context.Background()
	srv := newCatalogServer(t, memory.NewRepository())
	client := cataloghttp.NewClient(srv.URL, srv.Client(), cataloghttp.DefaultBreakerSettings(), nil)

	t.Run("lists products", func(t *testing.T) {
		products, err := client.List(ctx, ports.ListFilter{FeaturedOnly: true})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(products) != 2 {
			t.Errorf("expected 2 featured products, got %d", len(products))
		}
	})

	t.Run("gets a product with its variants", func(t *testing.T) {
		product, err := client.GetByID(ctx, 3)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if product.Name != "Off-By-One Eraser" || product.Price.String() != "7.5" {
			t.Errorf("unexpected product %+v", product)
		}
	})

	t.Run("maps 404 to not found", func(t *testing.T) {
		_, err := client.GetByID(ctx, 404)
		if !errors.Is(err, ports.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestClientCircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := cataloghttp.NewClient(srv.URL, srv.Client(), cataloghttp.BreakerSettings{
		ConsecutiveFailures: 2,
		OpenTimeout:         time.Minute,
	}, nil)

	for i := 0; i < 4; i++ {
		_, err := client.GetByID(context.Background(), 1)
		if !errors.Is(err, cataloghttp.ErrUnavailable) {
			t.Fatalf("call %d: expected ErrUnavailable, got %v", i, err)
		}
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("expected the breaker to stop calls after 2 failures, server saw %d", got)
	}
}
