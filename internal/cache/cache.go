// Package cache provides the response cache that sits in front of the paper
// source adapters.
//
// A Cache wraps one Backend (file, redis or bolt). Construction prefers the
// configured backend and falls back to the file backend when the preferred
// one is unreachable. Reads never fail: backend errors are logged and counted
// as misses.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/scholar-gateway/internal/observability"
)

// Defaults applied by New.
const (
	DefaultTTL      = time.Hour
	DefaultFilePath = "./cache"
)

// Config configures the cache.
type Config struct {
	Enabled  bool
	Backend  string
	TTL      time.Duration
	FilePath string
	Redis    RedisConfig
	Bolt     BoltConfig
}

// Cache is a JSON value cache over a Backend. A disabled cache misses on every
// read and drops every write. It is safe for concurrent use.
type Cache struct {
	backend Backend
	enabled bool
	ttl     time.Duration
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// New builds the cache. The preferred backend is tried first; if it reports
// ErrBackendUnavailable the cache falls back to the file backend. Any other
// construction error is returned.
func New(ctx context.Context, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) (*Cache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.FilePath == "" {
		cfg.FilePath = DefaultFilePath
	}
	logger = logger.With().Str("component", "cache").Logger()

	c := &Cache{
		enabled: cfg.Enabled,
		ttl:     cfg.TTL,
		logger:  logger,
		metrics: metrics,
	}
	if !cfg.Enabled {
		logger.Info().Msg("cache disabled")
		return c, nil
	}

	backend, err := openBackend(ctx, cfg)
	if errors.Is(err, ErrBackendUnavailable) {
		logger.Warn().Err(err).
			Str("backend", cfg.Backend).
			Str("path", cfg.FilePath).
			Msg("preferred cache backend unavailable, falling back to file cache")
		backend, err = NewFileBackend(cfg.FilePath, cfg.TTL)
	}
	if err != nil {
		return nil, err
	}

	c.backend = backend
	logger.Info().Str("backend", backend.Name()).Dur("ttl", cfg.TTL).Msg("cache initialized")
	return c, nil
}

// NewWithBackend wraps an existing backend in an enabled cache.
func NewWithBackend(backend Backend, ttl time.Duration, logger zerolog.Logger, metrics *observability.Metrics) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		backend: backend,
		enabled: true,
		ttl:     ttl,
		logger:  logger.With().Str("component", "cache").Logger(),
		metrics: metrics,
	}
}

func openBackend(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileBackend(cfg.FilePath, cfg.TTL)
	case BackendRedis:
		return NewRedisBackend(ctx, cfg.Redis)
	case BackendBolt:
		return NewBoltBackend(cfg.Bolt)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c.enabled && c.backend != nil
}

// BackendName returns the active backend name, or "disabled".
func (c *Cache) BackendName() string {
	if !c.Enabled() {
		return "disabled"
	}
	return c.backend.Name()
}

// TTL returns the default time to live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get decodes the cached value for key into dest and reports whether it was
// found. Backend and decode errors are logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if !c.Enabled() {
		return false
	}
	operation := keyPrefix(key)

	data, found, err := c.backend.Get(ctx, key)
	if err != nil {
		c.metrics.RecordCacheError(c.backend.Name(), "get")
		logger := observability.WithCacheContext(ctx, c.logger, key)
		logger.Error().Err(err).Msg("cache get failed")
		found = false
	}
	if !found {
		c.metrics.RecordCacheMiss(operation)
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.metrics.RecordCacheError(c.backend.Name(), "decode")
		logger := observability.WithCacheContext(ctx, c.logger, key)
		logger.Warn().Err(err).Msg("dropping undecodable cache entry")
		_ = c.backend.Delete(ctx, key)
		c.metrics.RecordCacheMiss(operation)
		return false
	}

	c.metrics.RecordCacheHit(operation)
	logger := observability.WithCacheContext(ctx, c.logger, key)
	logger.Debug().Msg("cache hit")
	return true
}

// Set stores value under key. The optional ttl overrides the default. Values
// that encode as JSON null are not stored.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl ...time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache value %s: %w", key, err)
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	expiry := c.ttl
	if len(ttl) > 0 && ttl[0] > 0 {
		expiry = ttl[0]
	}

	if err := c.backend.Set(ctx, key, data, expiry); err != nil {
		c.metrics.RecordCacheError(c.backend.Name(), "set")
		return err
	}
	return nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.backend.Delete(ctx, key); err != nil {
		c.metrics.RecordCacheError(c.backend.Name(), "delete")
		return err
	}
	return nil
}

// Clear removes every entry.
func (c *Cache) Clear(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.backend.Clear(ctx); err != nil {
		c.metrics.RecordCacheError(c.backend.Name(), "clear")
		return err
	}
	c.logger.Info().Str("backend", c.backend.Name()).Msg("cache cleared")
	return nil
}

// Close releases the backend.
func (c *Cache) Close() error {
	if c.backend == nil {
		return nil
	}
	return c.backend.Close()
}

// Remember returns the cached result for prefix and params, or calls fn and
// caches its result. Errors from fn are returned uncached, and so are results
// that encode as JSON null, which keeps "not found" answers fresh. A nil
// cache calls fn directly.
func Remember[T any](ctx context.Context, c *Cache, prefix string, params interface{}, fn func(context.Context) (T, error)) (T, error) {
	if c == nil || !c.Enabled() {
		return fn(ctx)
	}

	key, err := Key(prefix, params)
	if err != nil {
		c.logger.Warn().Err(err).Str("prefix", prefix).Msg("uncacheable parameters")
		return fn(ctx)
	}

	var cached T
	if c.Get(ctx, key, &cached) {
		return cached, nil
	}

	result, err := fn(ctx)
	if err != nil {
		return result, err
	}
	if err := c.Set(ctx, key, result); err != nil {
		logger := observability.WithCacheContext(ctx, c.logger, key)
		logger.Error().Err(err).Msg("cache set failed")
	}
	return result, nil
}
