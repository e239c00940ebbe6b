package cache

import (
	"context"
	"errors"
	"time"
)

// ErrBackendUnavailable reports that a backend could not be reached at
// construction time. Only this error triggers the fallback to the file
// backend.
var ErrBackendUnavailable = errors.New("cache backend unavailable")

// Backend names accepted in configuration.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendBolt  = "bolt"
)

// Backend stores opaque values with a per-entry time to live.
type Backend interface {
	// Get returns the value for key. found is false for missing or expired
	// entries.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by the backend.
	Clear(ctx context.Context) error

	// Name returns the backend name used in logs and metrics.
	Name() string

	// Close releases backend resources.
	Close() error
}
