package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisNamespace prefixes every key the redis backend writes.
const DefaultRedisNamespace = "scholar:"

// clearScanCount is the SCAN page size used by Clear.
const clearScanCount = 500

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Host        string
	Port        int
	DB          int
	Password    string
	Namespace   string
	DialTimeout time.Duration
}

// Addr returns host:port with defaults applied.
func (c RedisConfig) Addr() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 6379
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// RedisBackend stores entries in redis with native expiry. Keys live under a
// namespace so Clear never touches foreign data.
type RedisBackend struct {
	client    *redis.Client
	namespace string
}

// Ensure RedisBackend implements Backend.
var _ Backend = (*RedisBackend)(nil)

// NewRedisBackend connects to redis and verifies the connection with PING.
// A failed PING is reported as ErrBackendUnavailable.
func NewRedisBackend(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultRedisNamespace
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 2 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis at %s: %v", ErrBackendUnavailable, cfg.Addr(), err)
	}

	return &RedisBackend{client: client, namespace: cfg.Namespace}, nil
}

// Name returns "redis".
func (b *RedisBackend) Name() string {
	return BackendRedis
}

// Get returns the value for key.
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := b.client.Get(ctx, b.namespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis cache: get %s: %w", key, err)
	}
	return data, true, nil
}

// Set stores value with SET EX semantics.
func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.namespace+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, b.namespace+key).Err(); err != nil {
		return fmt.Errorf("redis cache: delete %s: %w", key, err)
	}
	return nil
}

// Clear deletes every key under the namespace.
func (b *RedisBackend) Clear(ctx context.Context) error {
	iter := b.client.Scan(ctx, 0, b.namespace+"*", clearScanCount).Iterator()

	batch := make([]string, 0, clearScanCount)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == clearScanCount {
			if err := b.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis cache: clear: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis cache: scan: %w", err)
	}
	if len(batch) > 0 {
		if err := b.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis cache: clear: %w", err)
		}
	}
	return nil
}

// Close closes the client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
