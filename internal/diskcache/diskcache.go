// Package diskcache is a tiny msgpack-backed key/value persistence layer
// used by internal/predictor to keep its last-known concept ->
// virtual-board map across process restarts (the next-day prediction
// cache itself lives in cache.db, not here). One file per key under a
// base directory, atomic
// write-then-rename so a crash mid-write never leaves a corrupt entry.
package diskcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned by Get when key has no cached entry.
var ErrNotFound = errors.New("diskcache: key not found")

// Cache is a directory-backed key/value store, msgpack-encoded.
type Cache struct {
	dir string
	log zerolog.Logger
}

// New builds a Cache rooted at dir, creating it if necessary.
func New(dir string, log zerolog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir, log: log.With().Str("component", "diskcache").Logger()}, nil
}

// entry wraps the stored value with the time it was written, so callers
// can implement age-based freshness policies without a separate index.
type entry struct {
	WrittenAt time.Time
	Payload   []byte
}

// Set msgpack-encodes value and writes it atomically under key.
func (c *Cache) Set(key string, value interface{}) error {
	payload, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	wrapped, err := msgpack.Marshal(entry{WrittenAt: time.Now(), Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal entry wrapper for %s: %w", key, err)
	}

	path := c.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, wrapped, 0644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename into place %s: %w", key, err)
	}
	return nil
}

// Get decodes the entry for key into dst, returning its write time.
func (c *Cache) Get(key string, dst interface{}) (time.Time, error) {
	raw, err := os.ReadFile(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read %s: %w", key, err)
	}

	var e entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return time.Time{}, fmt.Errorf("unmarshal entry wrapper for %s: %w", key, err)
	}
	if err := msgpack.Unmarshal(e.Payload, dst); err != nil {
		return time.Time{}, fmt.Errorf("unmarshal payload for %s: %w", key, err)
	}
	return e.WrittenAt, nil
}

// Delete removes key's entry, if any. Deleting an absent key is not an error.
func (c *Cache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".msgpack")
}
