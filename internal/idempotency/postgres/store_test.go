//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dejobratic/errorfix/internal/checkout/ports"
	"github.com/dejobratic/errorfix/internal/database/databasetest"
	"github.com/dejobratic/errorfix/internal/idempotency/postgres"
)

func TestStoreSaveAndGet(t *testing.T) {
	pool := databasetest.NewPool(t)
	store := postgres.NewStore(pool, time.Hour)
	ctx := context.Background()

	t.Run("returns nil for unknown keys", func(t *testing.T) {
		got, err := store.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil response, got %+v", got)
		}
	})

	t.Run("keeps the first response saved for a key", func(t *testing.T) {
		first := ports.StoredResponse{StatusCode: 200, Body: []byte(`{"success":true}`), TransactionID: "txn-1"}
		second := ports.StoredResponse{StatusCode: 402, Body: []byte(`{"success":false}`), TransactionID: "txn-2"}

		if err := store.Save(ctx, "key-1", first); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if err := store.Save(ctx, "key-1", second); err != nil {
			t.Fatalf("expected duplicate save to succeed, got: %v", err)
		}

		got, err := store.Get(ctx, "key-1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if got.StatusCode != 200 || got.TransactionID != "txn-1" || string(got.Body) != string(first.Body) {
			t.Errorf("unexpected stored response %+v", got)
		}
	})

	t.Run("ignores and replaces expired responses", func(t *testing.T) {
		if err := store.Save(ctx, "key-old", ports.StoredResponse{StatusCode: 200, TransactionID: "txn-old"}); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if _, err := pool.Exec(ctx, `UPDATE idempotency_keys SET created_at = NOW() - INTERVAL '2 hours' WHERE key = 'key-old'`); err != nil {
			t.Fatalf("age row: %v", err)
		}

		got, err := store.Get(ctx, "key-old")
		if err != nil || got != nil {
			t.Fatalf("expected expired key to be absent, got %+v (%v)", got, err)
		}

		if err := store.Save(ctx, "key-old", ports.StoredResponse{StatusCode: 402, TransactionID: "txn-new"}); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		got, err = store.Get(ctx, "key-old")
		if err != nil || got == nil || got.TransactionID != "txn-new" {
			t.Errorf("expected replaced response, got %+v (%v)", got, err)
		}
	})

	t.Run("reservation blocks a second claim until a response is saved", func(t *testing.T) {
		ok, err := store.Reserve(ctx, "key-res")
		if err != nil || !ok {
			t.Fatalf("expected first reservation to succeed, got %v (%v)", ok, err)
		}
		ok, err = store.Reserve(ctx, "key-res")
		if err != nil || ok {
			t.Fatalf("expected second reservation to be refused, got %v (%v)", ok, err)
		}

		pending, err := store.Get(ctx, "key-res")
		if err != nil || pending == nil || !pending.Pending() {
			t.Fatalf("expected pending response, got %+v (%v)", pending, err)
		}

		if err := store.Save(ctx, "key-res", ports.StoredResponse{StatusCode: 200, TransactionID: "txn-res"}); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if err := store.Release(ctx, "key-res"); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		got, err := store.Get(ctx, "key-res")
		if err != nil || got == nil || got.TransactionID != "txn-res" {
			t.Errorf("expected saved response to survive release, got %+v (%v)", got, err)
		}
	})

	t.Run("released reservations free the key", func(t *testing.T) {
		if _, err := store.Reserve(ctx, "key-free"); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if err := store.Release(ctx, "key-free"); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		ok, err := store.Reserve(ctx, "key-free")
		if err != nil || !ok {
			t.Errorf("expected key to be free again, got %v (%v)", ok, err)
		}
	})

	t.Run("deletes expired responses", func(t *testing.T) {
		if _, err := pool.Exec(ctx, `UPDATE idempotency_keys SET created_at = NOW() - INTERVAL '2 hours' WHERE key = 'key-1'`); err != nil {
			t.Fatalf("age row: %v", err)
		}

		deleted, err := store.DeleteExpired(ctx)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if deleted != 1 {
			t.Errorf("expected 1 deleted row, got %d", deleted)
		}
	})
}
