package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dejobratic/errorfix/internal/checkout/ports"
)

const (
	keyPrefix     = "idem:"
	pendingMarker = "pending"
)

// saveScript overwrites a reservation or an empty key, never a stored response.
var saveScript = goredis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current and current ~= ARGV[2] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DefaultTTL bounds how long a purchase response can be replayed.
const DefaultTTL = 24 * time.Hour

type storedResponse struct {
	StatusCode    int    `json:"statusCode"`
	Body          []byte `json:"body"`
	TransactionID string `json:"transactionId"`
}

// Store keeps idempotent responses in Redis with an expiry.
type Store struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewStore(client *goredis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	if string(raw) == pendingMarker {
		return &ports.StoredResponse{}, nil
	}

	var stored storedResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode idempotency key: %w", err)
	}

	return &ports.StoredResponse{
		StatusCode:    stored.StatusCode,
		Body:          stored.Body,
		TransactionID: stored.TransactionID,
	}, nil
}

// Reserve uses SETNX so only one request runs the purchase for a key.
func (s *Store) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, pendingMarker, ports.ReservationTTL).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Save replaces a reservation; the first stored response for a key wins.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	raw, err := json.Marshal(storedResponse{
		StatusCode:    response.StatusCode,
		Body:          response.Body,
		TransactionID: response.TransactionID,
	})
	if err != nil {
		return fmt.Errorf("encode idempotency key: %w", err)
	}

	err = saveScript.Run(ctx, s.client, []string{keyPrefix + key}, raw, pendingMarker, s.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("set idempotency key: %w", err)
	}
	return nil
}

func (s *Store) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{keyPrefix + key}, pendingMarker).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
