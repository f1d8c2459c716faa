package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/errorfix/internal/storage"
)

// Store keeps snapshots in the client_snapshots table, namespaced per owner so
// several storefront clients can share one database.
type Store struct {
	pool  *pgxpool.Pool
	owner string
}

func NewStore(pool *pgxpool.Pool, owner string) *Store {
	return &Store{pool: pool, owner: owner}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM client_snapshots
		WHERE owner = $1 AND key = $2
	`

	var value []byte
	err := s.pool.QueryRow(ctx, query, s.owner, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO client_snapshots (owner, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (owner, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := s.pool.Exec(ctx, query, s.owner, key, value); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	query := `
		DELETE FROM client_snapshots
		WHERE owner = $1 AND key = $2
	`

	if _, err := s.pool.Exec(ctx, query, s.owner, key); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
