package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisConfigFor(t *testing.T, mr *miniredis.Miniredis) RedisConfig {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return RedisConfig{Host: mr.Host(), Port: port, Namespace: "test:"}
}

func TestRedisBackend_SetGetTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedisBackend(context.Background(), redisConfigFor(t, mr))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	ctx := context.Background()

	_, found, err := b.Get(ctx, "search:x")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, b.Set(ctx, "search:x", []byte(`[1,2]`), time.Minute))
	assert.True(t, mr.Exists("test:search:x"))
	assert.Equal(t, time.Minute, mr.TTL("test:search:x"))

	data, found, err := b.Get(ctx, "search:x")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[1,2]`, string(data))

	mr.FastForward(61 * time.Second)
	_, found, err = b.Get(ctx, "search:x")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisBackend_ClearOnlyNamespace(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("foreign", "keep"))

	b, err := NewRedisBackend(context.Background(), redisConfigFor(t, mr))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	ctx := context.Background()

	for i := 0; i < 1200; i++ {
		require.NoError(t, b.Set(ctx, "k"+strconv.Itoa(i), []byte("v"), time.Hour))
	}
	require.NoError(t, b.Delete(ctx, "k0"))
	assert.False(t, mr.Exists("test:k0"))

	require.NoError(t, b.Clear(ctx))
	assert.Equal(t, []string{"foreign"}, mr.Keys())
}

func TestRedisBackend_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := redisConfigFor(t, mr)
	cfg.DialTimeout = 200 * time.Millisecond
	mr.Close()

	_, err := NewRedisBackend(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "localhost:6379", RedisConfig{}.Addr())
	assert.Equal(t, "cache.internal:6380", RedisConfig{Host: "cache.internal", Port: 6380}.Addr())
}
