package availability

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Cache memoizes marshaled slot and heatmap results for a short TTL.
// Implementations must be safe for concurrent use. A miss is never an error;
// callers fall through to recomputation.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

type lruEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// LRUCache is an in-process capacity-bounded TTL cache. All access goes
// through one mutex so concurrent requests never observe a half-written
// entry or a corrupt recency order. The clock is injected so TTL expiry is
// testable deterministically.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	order    *list.List
	entries  map[string]*list.Element
}

// NewLRUCache creates an LRU cache with the given capacity and TTL. A nil
// clock defaults to time.Now.
func NewLRUCache(capacity int, ttl time.Duration, now func() time.Time) *LRUCache {
	if capacity <= 0 {
		capacity = 1
	}
	if now == nil {
		now = time.Now
	}
	return &LRUCache{
		capacity: capacity,
		ttl:      ttl,
		now:      now,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get returns the stored value when present and unexpired, refreshing its
// recency.
func (c *LRUCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*lruEntry)
	if c.now().After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(el)
	return entry.value, true
}

// Set stores a value, evicting the least-recently-used entry at capacity.
func (c *LRUCache) Set(_ context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*lruEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*lruEntry).key)
		}
	}
	c.entries[key] = c.order.PushFront(&lruEntry{key: key, value: value, expiresAt: expiresAt})
}

// Len returns the number of live entries (including not-yet-evicted expired
// ones).
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
