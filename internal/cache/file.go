package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// fileSuffix marks files owned by the file backend.
const fileSuffix = ".cache"

// FileBackend stores one file per key under a directory. Expiry is encoded in
// the file modification time: a write with ttl sets mtime to
// now + ttl - defaultTTL, so the single read check "mtime older than
// defaultTTL" honours per-entry TTLs without sidecar files.
type FileBackend struct {
	dir        string
	defaultTTL time.Duration
	now        func() time.Time
}

// Ensure FileBackend implements Backend.
var _ Backend = (*FileBackend)(nil)

// NewFileBackend creates the directory if needed and returns a backend rooted
// there.
func NewFileBackend(dir string, defaultTTL time.Duration) (*FileBackend, error) {
	if dir == "" {
		return nil, errors.New("file cache: directory is required")
	}
	if defaultTTL <= 0 {
		return nil, errors.New("file cache: default ttl must be positive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file cache: creating %s: %w", dir, err)
	}
	return &FileBackend{dir: dir, defaultTTL: defaultTTL, now: time.Now}, nil
}

// Name returns "file".
func (b *FileBackend) Name() string {
	return BackendFile
}

// Get reads the entry for key, deleting it when expired.
func (b *FileBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := b.path(key)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("file cache: stat %s: %w", key, err)
	}

	if b.now().Sub(info.ModTime()) > b.defaultTTL {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("file cache: removing expired %s: %w", key, err)
		}
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("file cache: reading %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes the entry through a temporary file and an atomic rename.
func (b *FileBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = b.defaultTTL
	}

	tmp := filepath.Join(b.dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("file cache: writing %s: %w", key, err)
	}

	mtime := b.now().Add(ttl - b.defaultTTL)
	if err := os.Chtimes(tmp, mtime, mtime); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("file cache: setting expiry for %s: %w", key, err)
	}

	if err := os.Rename(tmp, b.path(key)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("file cache: committing %s: %w", key, err)
	}
	return nil
}

// Delete removes the entry for key.
func (b *FileBackend) Delete(_ context.Context, key string) error {
	if err := os.Remove(b.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("file cache: deleting %s: %w", key, err)
	}
	return nil
}

// Clear removes every cache file in the directory. Other files are left
// alone.
func (b *FileBackend) Clear(_ context.Context) error {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return fmt.Errorf("file cache: listing %s: %w", b.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(b.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("file cache: clearing %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Close is a no-op.
func (b *FileBackend) Close() error {
	return nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, sanitizeKey(key)+fileSuffix)
}

// sanitizeKey maps a key onto a portable file name.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, key)
}
