package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dejobratic/errorfix/internal/storage"
)

const (
	keyPrefix    = "errorfix:snapshot:"
	defaultOwner = "default"
)

// Store keeps one owner's snapshots in Redis. A zero ttl keeps them until
// deleted.
type Store struct {
	client *redis.Client
	owner  string
	ttl    time.Duration
}

func NewStore(client *redis.Client, owner string, ttl time.Duration) *Store {
	if owner == "" {
		owner = defaultOwner
	}
	return &Store{client: client, owner: owner, ttl: ttl}
}

// NewClient parses a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.snapshotKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.snapshotKey(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.snapshotKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete snapshot: %w", err)
	}
	return nil
}

func (s *Store) snapshotKey(key string) string {
	return keyPrefix + s.owner + ":" + key
}
