// Package cache stores generated prompts keyed by a request fingerprint.
// It supports both in-memory (single instance) and Redis (distributed)
// backends. Entries are retained for a fixed window; expired entries are
// swept opportunistically on writes, not on a schedule.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultTTL is the retention window for cached prompts.
const DefaultTTL = 24 * time.Hour

// Entry is a cached generation result.
type Entry struct {
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cache defines the interface for prompt cache backends.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Put(ctx context.Context, key string, prompt string) error
}

// Key derives the cache fingerprint for a request. The text length prefix
// keeps distinct (text, context) pairs from ever mapping to the same key,
// even when either field contains the separator.
func Key(text, reqContext string) string {
	return fmt.Sprintf("%d:%s:%s", len(text), text, reqContext)
}

// MemoryCache is a process-lifetime prompt cache. Writes are independent
// last-write-wins operations: two concurrent generations for the same key
// are not deduplicated, whichever finishes last owns the entry.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache returns a cache with the given retention window. The
// clock is injectable for tests; pass nil for time.Now.
func NewMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the entry for key. An entry older than the retention window
// is reported as a miss but left in place; removal happens on the next
// sweep.
func (c *MemoryCache) Get(ctx context.Context, key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}

	if c.now().Sub(entry.CreatedAt) > c.ttl {
		return Entry{}, false
	}

	return entry, true
}

// Put inserts or overwrites the entry for key, then sweeps expired
// entries. The sweep runs under the write lock so it stays an amortized
// cost on the generation path rather than a background obligation.
func (c *MemoryCache) Put(ctx context.Context, key string, prompt string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = Entry{Prompt: prompt, CreatedAt: now}

	for k, entry := range c.entries {
		if now.Sub(entry.CreatedAt) > c.ttl {
			delete(c.entries, k)
		}
	}

	return nil
}

// Len reports the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
