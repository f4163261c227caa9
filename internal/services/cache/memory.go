package cache

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryCache implements an in-process cache, used for runs that should not
// leave transcripts on disk
type MemoryCache struct {
	mu          sync.RWMutex
	items       map[string][]byte
	currentSize int64
	stats       CacheStats
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string][]byte),
	}
}

// Get retrieves a value from the cache
func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	mc.mu.RLock()
	value, exists := mc.items[key]
	mc.mu.RUnlock()

	if !exists {
		atomic.AddInt64(&mc.stats.Misses, 1)
		return nil, false, nil
	}

	atomic.AddInt64(&mc.stats.Hits, 1)
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set stores a copy of value in the cache
func (mc *MemoryCache) Set(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	mc.mu.Lock()
	if old, exists := mc.items[key]; exists {
		atomic.AddInt64(&mc.currentSize, -int64(len(key)+len(old)))
	}
	mc.items[key] = stored
	atomic.AddInt64(&mc.currentSize, int64(len(key)+len(stored)))
	mc.mu.Unlock()

	atomic.AddInt64(&mc.stats.Sets, 1)
	return nil
}

// Delete removes a value from the cache
func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	if value, exists := mc.items[key]; exists {
		delete(mc.items, key)
		atomic.AddInt64(&mc.currentSize, -int64(len(key)+len(value)))
		atomic.AddInt64(&mc.stats.Deletes, 1)
	}
	mc.mu.Unlock()
	return nil
}

// Clear removes all values from the cache
func (mc *MemoryCache) Clear(ctx context.Context) error {
	mc.mu.Lock()
	mc.items = make(map[string][]byte)
	atomic.StoreInt64(&mc.currentSize, 0)
	mc.mu.Unlock()
	return nil
}

// Has checks if a key exists in the cache
func (mc *MemoryCache) Has(ctx context.Context, key string) bool {
	mc.mu.RLock()
	_, exists := mc.items[key]
	mc.mu.RUnlock()
	return exists
}

// Stats returns cache statistics
func (mc *MemoryCache) Stats() CacheStats {
	return CacheStats{
		Hits:    atomic.LoadInt64(&mc.stats.Hits),
		Misses:  atomic.LoadInt64(&mc.stats.Misses),
		Sets:    atomic.LoadInt64(&mc.stats.Sets),
		Deletes: atomic.LoadInt64(&mc.stats.Deletes),
		Size:    atomic.LoadInt64(&mc.currentSize),
	}
}
