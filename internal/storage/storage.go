// Package storage defines the durable key-value store the client-side state
// containers persist their snapshots into.
package storage

import (
	"context"
	"errors"
)

// Fixed namespaces used by the client stores.
const (
	CartKey    = "cart"
	SessionKey = "auth-storage"
)

// ErrNotFound is returned by Get when no snapshot exists for a key.
var ErrNotFound = errors.New("snapshot not found")

// Store is a key-value store for JSON snapshots.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
