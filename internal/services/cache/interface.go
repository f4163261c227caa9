package cache

import (
	"context"
)

// Cache defines the interface for transcript cache backends. Entries never
// expire; the operator clears them manually.
type Cache interface {
	// Get retrieves a value from the cache. A missing key is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value in the cache
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a value from the cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from the cache
	Clear(ctx context.Context) error

	// Has checks if a key exists in the cache
	Has(ctx context.Context, key string) bool
}

// CacheStats provides statistics about cache usage
type CacheStats struct {
	Hits    int64
	Misses  int64
	Sets    int64
	Deletes int64
	Size    int64
}

// StatsProvider interface for caches that provide statistics
type StatsProvider interface {
	Stats() CacheStats
}
