// Package postgres keeps idempotent purchase responses in the
// idempotency_keys table next to the transactions they describe.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/errorfix/internal/checkout/ports"
)

// Store replays responses saved within ttl. A zero ttl never expires them.
type Store struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewStore(pool *pgxpool.Pool, ttl time.Duration) *Store {
	return &Store{pool: pool, ttl: ttl}
}

// Rows with status_code 0 are reservations; they lapse after
// ports.ReservationTTL regardless of the store ttl.
const liveCondition = `
	CASE WHEN idempotency_keys.status_code = 0
		THEN idempotency_keys.created_at > NOW() - make_interval(secs => $3::bigint)
		ELSE ($2::bigint = 0 OR idempotency_keys.created_at > NOW() - make_interval(secs => $2::bigint))
	END`

// Get returns nil, nil for unknown or expired keys.
func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	query := `
		SELECT status_code, body, transaction_id
		FROM idempotency_keys
		WHERE key = $1 AND ` + liveCondition

	var resp ports.StoredResponse
	err := s.pool.QueryRow(ctx, query, key, s.ttlSeconds(), reservationSeconds()).
		Scan(&resp.StatusCode, &resp.Body, &resp.TransactionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select idempotent response %s: %w", key, err)
	}
	return &resp, nil
}

// Reserve inserts a pending row for key, or takes over an expired one.
func (s *Store) Reserve(ctx context.Context, key string) (bool, error) {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, transaction_id, created_at)
		VALUES ($1, 0, ''::bytea, '', NOW())
		ON CONFLICT (key) DO UPDATE
		SET status_code = 0,
		    body = ''::bytea,
		    transaction_id = '',
		    created_at = NOW()
		WHERE NOT (` + liveCondition + `)
	`

	tag, err := s.pool.Exec(ctx, query, key, s.ttlSeconds(), reservationSeconds())
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key %s: %w", key, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Save stores response under key. A live response already stored for key
// wins; a reservation or an expired response is replaced.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, transaction_id, created_at)
		VALUES ($1, $4, $5, $6, NOW())
		ON CONFLICT (key) DO UPDATE
		SET status_code = EXCLUDED.status_code,
		    body = EXCLUDED.body,
		    transaction_id = EXCLUDED.transaction_id,
		    created_at = EXCLUDED.created_at
		WHERE idempotency_keys.status_code = 0 OR NOT (` + liveCondition + `)
	`

	body := response.Body
	if body == nil {
		body = []byte{}
	}
	_, err := s.pool.Exec(ctx, query, key, s.ttlSeconds(), reservationSeconds(), response.StatusCode, body, response.TransactionID)
	if err != nil {
		return fmt.Errorf("save idempotent response %s: %w", key, err)
	}
	return nil
}

func (s *Store) Release(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1 AND status_code = 0`, key)
	if err != nil {
		return fmt.Errorf("release idempotency key %s: %w", key, err)
	}
	return nil
}

// DeleteExpired removes responses older than the store ttl and lapsed
// reservations, and reports how many were dropped.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `
		DELETE FROM idempotency_keys
		WHERE (status_code = 0 AND created_at <= NOW() - make_interval(secs => $2::bigint))
		   OR ($1::bigint > 0 AND status_code <> 0 AND created_at <= NOW() - make_interval(secs => $1::bigint))
	`
	tag, err := s.pool.Exec(ctx, query, s.ttlSeconds(), reservationSeconds())
	if err != nil {
		return 0, fmt.Errorf("delete expired idempotent responses: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) ttlSeconds() int64 {
	return int64(s.ttl / time.Second)
}

func reservationSeconds() int64 {
	return int64(ports.ReservationTTL / time.Second)
}
