package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// DefaultBoltBucket is the bucket used when none is configured.
const DefaultBoltBucket = "scholar-cache"

// expiryHeaderLen is the size of the expiry prefix stored before each value.
const expiryHeaderLen = 8

// BoltConfig configures the bolt backend.
type BoltConfig struct {
	Path        string
	Bucket      string
	OpenTimeout time.Duration
}

// BoltBackend stores entries in a single bbolt file. Each value is prefixed
// with its expiry as big-endian unix nanoseconds.
type BoltBackend struct {
	db     *bbolt.DB
	bucket []byte
	now    func() time.Time
}

// Ensure BoltBackend implements Backend.
var _ Backend = (*BoltBackend)(nil)

// NewBoltBackend opens (or creates) the database file and its bucket. A file
// locked by another process is reported as ErrBackendUnavailable.
func NewBoltBackend(cfg BoltConfig) (*BoltBackend, error) {
	if cfg.Path == "" {
		return nil, errors.New("bolt cache: path is required")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBoltBucket
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 2 * time.Second
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("bolt cache: creating %s: %w", filepath.Dir(cfg.Path), err)
	}

	db, err := bbolt.Open(cfg.Path, 0o600, &bbolt.Options{Timeout: cfg.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("%w: bolt at %s: %v", ErrBackendUnavailable, cfg.Path, err)
	}

	bucket := []byte(cfg.Bucket)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt cache: creating bucket: %w", err)
	}

	return &BoltBackend{db: db, bucket: bucket, now: time.Now}, nil
}

// Name returns "bolt".
func (b *BoltBackend) Name() string {
	return BackendBolt
}

// Get returns the value for key, deleting it when expired.
func (b *BoltBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	var (
		value   []byte
		found   bool
		expired bool
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(b.bucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		if len(data) < expiryHeaderLen {
			expired = true
			return nil
		}
		expiry := time.Unix(0, int64(binary.BigEndian.Uint64(data[:expiryHeaderLen])))
		if !b.now().Before(expiry) {
			expired = true
			return nil
		}
		// Bytes returned by Get are only valid inside the transaction.
		value = append([]byte{}, data[expiryHeaderLen:]...)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("bolt cache: get %s: %w", key, err)
	}

	if expired {
		if err := b.Delete(context.Background(), key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return value, found, nil
}

// Set stores value with its expiry header.
func (b *BoltBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data := make([]byte, expiryHeaderLen+len(value))
	binary.BigEndian.PutUint64(data[:expiryHeaderLen], uint64(b.now().Add(ttl).UnixNano()))
	copy(data[expiryHeaderLen:], value)

	if err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), data)
	}); err != nil {
		return fmt.Errorf("bolt cache: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (b *BoltBackend) Delete(_ context.Context, key string) error {
	if err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(b.bucket).Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("bolt cache: delete %s: %w", key, err)
	}
	return nil
}

// Clear drops and recreates the bucket.
func (b *BoltBackend) Clear(_ context.Context) error {
	if err := b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(b.bucket); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(b.bucket)
		return err
	}); err != nil {
		return fmt.Errorf("bolt cache: clear: %w", err)
	}
	return nil
}

// Close closes the database file.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
