package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a generic in-memory cache with TTL expiry and LRU eviction
// bounded by a total cost budget rather than an entry count. Cost is
// computed per entry by the costOf function supplied at construction
// (nil means every entry costs 1, which degrades to entry-count bounds).
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	items     map[K]*list.Element
	evictList *list.List
	maxCost   int64
	totalCost int64
	costOf    func(V) int64
	stats     Stats
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	cost      int64
	createdAt time.Time
	expiresAt time.Time
	hits      int64
}

// New creates a cache with the given cost budget. A nil costOf charges
// one unit per entry.
func New[K comparable, V any](maxCost int64, costOf func(V) int64) *Cache[K, V] {
	if maxCost <= 0 {
		maxCost = 1000
	}
	if costOf == nil {
		costOf = func(V) int64 { return 1 }
	}
	return &Cache[K, V]{
		items:     make(map[K]*list.Element),
		evictList: list.New(),
		maxCost:   maxCost,
		costOf:    costOf,
	}
}

// Get retrieves a value from the cache. Returns the value and true if
// found and not expired, or the zero value and false otherwise. Expired
// entries are removed, not returned stale.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}

	e := el.Value.(*entry[K, V])
	if time.Now().After(e.expiresAt) {
		c.removeLocked(el)
		c.stats.Misses++
		var zero V
		return zero, false
	}

	c.evictList.MoveToFront(el)
	e.hits++
	c.stats.Hits++
	return e.value, true
}

// GetWithAge retrieves a value and the time since it was cached.
func (c *Cache[K, V]) GetWithAge(key K) (V, time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, 0, false
	}

	e := el.Value.(*entry[K, V])
	now := time.Now()
	if now.After(e.expiresAt) {
		c.removeLocked(el)
		c.stats.Misses++
		var zero V
		return zero, 0, false
	}

	c.evictList.MoveToFront(el)
	e.hits++
	c.stats.Hits++
	return e.value, now.Sub(e.createdAt), true
}

// Set stores a value with the given TTL. Eviction happens here, lazily:
// once the aggregate cost exceeds the budget, least-recently-used entries
// are dropped regardless of their remaining TTL.
func (c *Cache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	cost := c.costOf(value)

	if el, ok := c.items[key]; ok {
		c.evictList.MoveToFront(el)
		e := el.Value.(*entry[K, V])
		c.totalCost += cost - e.cost
		e.value = value
		e.cost = cost
		e.createdAt = now
		e.expiresAt = now.Add(ttl)
	} else {
		e := &entry[K, V]{
			key:       key,
			value:     value,
			cost:      cost,
			createdAt: now,
			expiresAt: now.Add(ttl),
		}
		el := c.evictList.PushFront(e)
		c.items[key] = el
		c.totalCost += cost
	}

	for c.totalCost > c.maxCost && c.evictList.Len() > 1 {
		c.evictOldestLocked()
	}
}

// Invalidate removes a single key from the cache.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	}
}

// InvalidateFunc removes all entries for which predicate returns true.
func (c *Cache[K, V]) InvalidateFunc(predicate func(K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, el := range c.items {
		if predicate(key) {
			c.removeLocked(el)
		}
	}
}

// Flush removes all entries from the cache.
func (c *Cache[K, V]) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.evictList.Init()
	c.totalCost = 0
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns the keys of all live entries in no particular order.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]K, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	return keys
}

// Cost returns the current aggregate cost of all entries.
func (c *Cache[K, V]) Cost() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCost
}

// Stats returns a snapshot of cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.items)
	s.Cost = c.totalCost
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// ResetStats zeroes the hit/miss/eviction counters.
func (c *Cache[K, V]) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = Stats{}
}

func (c *Cache[K, V]) removeLocked(el *list.Element) {
	e := el.Value.(*entry[K, V])
	delete(c.items, e.key)
	c.evictList.Remove(el)
	c.totalCost -= e.cost
}

func (c *Cache[K, V]) evictOldestLocked() {
	el := c.evictList.Back()
	if el == nil {
		return
	}
	c.removeLocked(el)
	c.stats.Evictions++
}
