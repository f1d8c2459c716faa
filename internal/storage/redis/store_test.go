package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/errorfix/internal/storage"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, "ada", ttl), mr
}

func TestGet_Miss(t *testing.T) {
	store, _ := setupTestRedis(t, 0)

	got, err := store.Get(context.Background(), storage.CartKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Nil(t, got)
}

func TestPutAndGet(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, storage.CartKey, []byte(`{"state":{"items":[]}}`)))

	raw, err := mr.Get(store.snapshotKey(storage.CartKey))
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"items":[]}}`, raw)

	got, err := store.Get(ctx, storage.CartKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"items":[]}}`, string(got))
}

func TestPut_AppliesTTL(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)

	require.NoError(t, store.Put(context.Background(), storage.SessionKey, []byte(`{}`)))
	assert.Equal(t, time.Hour, mr.TTL(store.snapshotKey(storage.SessionKey)))

	mr.FastForward(2 * time.Hour)
	_, err := store.Get(context.Background(), storage.SessionKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDelete(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, storage.CartKey, []byte(`{}`)))
	require.NoError(t, store.Delete(ctx, storage.CartKey))
	assert.False(t, mr.Exists(store.snapshotKey(storage.CartKey)))
}

func TestGet_ConnectionError(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := store.Get(context.Background(), storage.CartKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestOwnersDoNotShareSnapshots(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	ada := NewStore(client, "ada", 0)
	linus := NewStore(client, "linus", 0)

	require.NoError(t, ada.Put(ctx, storage.CartKey, []byte(`{"owner":"ada"}`)))
	require.NoError(t, linus.Put(ctx, storage.CartKey, []byte(`{"owner":"linus"}`)))

	got, err := ada.Get(ctx, storage.CartKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"ada"}`, string(got))

	require.NoError(t, linus.Delete(ctx, storage.CartKey))
	_, err = ada.Get(ctx, storage.CartKey)
	assert.NoError(t, err)
	assert.True(t, mr.Exists("errorfix:snapshot:ada:cart"))
}
