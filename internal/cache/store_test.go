package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupStore(t *testing.T) (*ResponseStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewResponseStore("redis://"+mr.Addr(), time.Hour, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestNewResponseStore_PlainAddr(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store, err := NewResponseStore(mr.Addr(), time.Minute, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	store.Set(context.Background(), "k", "v")
	got, ok := store.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	_, err = NewResponseStore("redis://:senha@host:porta-invalida", time.Minute, zap.NewNop())
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	a := Key("gpt-4o-mini", []byte("img"))
	assert.Equal(t, a, Key("gpt-4o-mini", []byte("img")))
	assert.NotEqual(t, a, Key("gpt-4o", []byte("img")))
	assert.NotEqual(t, a, Key("gpt-4o-mini", []byte("img2")))
	assert.Contains(t, a, keyPrefix)
}

func TestResponseStore_GetSet(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()
	key := Key("gpt-4o-mini", []byte("img"))

	_, ok := store.Get(ctx, key)
	assert.False(t, ok)

	store.Set(ctx, key, `{"products": []}`)
	got, ok := store.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, `{"products": []}`, got)
	assert.Equal(t, time.Hour, mr.TTL(key))

	mr.FastForward(2 * time.Hour)
	_, ok = store.Get(ctx, key)
	assert.False(t, ok)
}

func TestResponseStore_RedisDownIsMiss(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	store := &ResponseStore{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}),
		TTL:    time.Minute,
		Logger: zap.NewNop(),
	}
	defer store.Close()
	mr.Close()

	ctx := context.Background()
	store.Set(ctx, "k", "v")
	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
}
