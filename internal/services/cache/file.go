package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// FileCache stores each entry as {dir}/{key}.json
type FileCache struct {
	dir   string
	stats CacheStats
}

// NewFileCache creates a file-backed cache rooted at dir. The directory is
// created on first write.
func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

// Dir returns the cache directory
func (fc *FileCache) Dir() string {
	return fc.dir
}

// Path returns the file an entry is stored in
func (fc *FileCache) Path(key string) string {
	return filepath.Join(fc.dir, key+".json")
}

// Get reads the entry for key
func (fc *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(fc.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		atomic.AddInt64(&fc.stats.Misses, 1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}

	atomic.AddInt64(&fc.stats.Hits, 1)
	return data, true, nil
}

// Set writes the entry for key through a temp file and rename, so readers
// never observe a partially written entry
func (fc *FileCache) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(fc.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(fc.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, fc.Path(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("committing cache entry %s: %w", key, err)
	}

	atomic.AddInt64(&fc.stats.Sets, 1)
	return nil
}

// Delete removes the entry for key
func (fc *FileCache) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(fc.Path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting cache entry %s: %w", key, err)
	}
	if err == nil {
		atomic.AddInt64(&fc.stats.Deletes, 1)
	}
	return nil
}

// Clear removes every entry in the cache directory
func (fc *FileCache) Clear(ctx context.Context) error {
	entries, err := filepath.Glob(filepath.Join(fc.dir, "*.json"))
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.Remove(entry); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("clearing cache: %w", err)
		}
	}
	return nil
}

// Has checks if an entry exists for key
func (fc *FileCache) Has(ctx context.Context, key string) bool {
	if validateKey(key) != nil {
		return false
	}
	_, err := os.Stat(fc.Path(key))
	return err == nil
}

// Stats returns cache statistics
func (fc *FileCache) Stats() CacheStats {
	return CacheStats{
		Hits:    atomic.LoadInt64(&fc.stats.Hits),
		Misses:  atomic.LoadInt64(&fc.stats.Misses),
		Sets:    atomic.LoadInt64(&fc.stats.Sets),
		Deletes: atomic.LoadInt64(&fc.stats.Deletes),
	}
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid cache key %q", key)
	}
	return nil
}
