package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(client, zap.NewNop(), "forecast"), mr
}

func TestCache_SetGet(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "prediction:v1:7", []byte(`{"views":1000}`), time.Minute))

	data, err := cache.Get(ctx, "prediction:v1:7")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"views":1000}`), data)
}

func TestCache_GetMissing(t *testing.T) {
	cache, _ := setupCache(t)

	data, err := cache.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, data, "missing key is nil, not an error")
}

func TestCache_TTLExpiry(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short-lived", []byte("x"), time.Minute))

	mr.FastForward(2 * time.Minute)

	data, err := cache.Get(ctx, "short-lived")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestCache_Delete(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []byte("value"), time.Minute))
	require.NoError(t, cache.Delete(ctx, "key"))

	data, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Nil(t, data)

	// Deleting again is idempotent.
	require.NoError(t, cache.Delete(ctx, "key"))
}

func TestCache_KeyPrefixing(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "v1", []byte("data"), time.Minute))

	assert.True(t, mr.Exists("forecast:v1"), "keys must be namespaced under the prefix")
	assert.False(t, mr.Exists("v1"))
}

func TestCache_Clear(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, cache.Set(ctx, "b", []byte("2"), time.Minute))
	// A key outside the prefix must survive.
	mr.Set("other:app", "keep")

	require.NoError(t, cache.Clear(ctx))

	a, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.True(t, mr.Exists("other:app"))
}

func TestCache_HealthCheck(t *testing.T) {
	cache, mr := setupCache(t)

	require.NoError(t, cache.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, cache.HealthCheck(context.Background()))
}
