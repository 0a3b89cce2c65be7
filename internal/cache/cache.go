package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entry is a cached response plus the time it was inserted.
type entry struct {
	value      []byte
	insertedAt time.Time
}

// Cache is a fixed-capacity, TTL-bounded, thread-safe response cache.
// Mutation is serialized by a single mutex (§4.2: "a single mutex guarding
// the LRU index is sufficient at this capacity"); callers never hold it
// across upstream I/O — Put is only ever called after a call to the
// upstream has already returned.
type Cache struct {
	mu    sync.Mutex
	index *lru.Cache[string, entry]
	ttl   time.Duration
}

// New creates a Cache holding at most capacity entries, each valid for ttl
// after insertion.
func New(capacity int, ttl time.Duration) *Cache {
	index, err := lru.New[string, entry](capacity)
	if err != nil {
		// Only invalid (<=0) capacity reaches here; the gateway validates
		// configuration before constructing the cache, so this indicates a
		// programmer error, not a runtime condition to recover from.
		panic(err)
	}
	return &Cache{index: index, ttl: ttl}
}

// Get returns the cached value for key if present and not expired. An
// expired entry is treated as absent and removed.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.index.Get(key)
	if !ok {
		return nil, false
	}
	if time.Since(e.insertedAt) >= c.ttl {
		c.index.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Put inserts or overwrites the entry for key. If the cache is at capacity,
// the underlying LRU index evicts its least-recently-used entry before the
// insert.
func (c *Cache) Put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index.Add(key, entry{value: value, insertedAt: time.Now()})
}

// Len returns the current number of entries, expired or not. Exposed for
// tests and for a future /status cache-size field.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Len()
}
