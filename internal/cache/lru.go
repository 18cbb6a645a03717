// Package cache provides the bounded LRU caches used by quill's database
// connection, most notably the prepared statement cache.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// LRU is a thread-safe, fixed-capacity least-recently-used cache keyed by string.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
	onEvict  func(key string, value V)

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type entry[V any] struct {
	key   string
	value V
	// refs counts outstanding Acquire calls. A detached entry has left the
	// cache; its onEvict runs once refs drops to zero.
	refs     int
	detached bool
}

// NewLRU creates a cache holding at most capacity entries. onEvict, when not
// nil, is called for every value that leaves the cache (eviction, replacement,
// removal or Clear) while the cache lock is held. For a value still held
// through Acquire, the call is deferred until the last release.
func NewLRU[V any](capacity int, onEvict func(key string, value V)) *LRU[V] {
	if capacity <= 0 {
		capacity = DefaultStmtCacheCapacity
	}
	return &LRU[V]{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
		onEvict:  onEvict,
	}
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.order.MoveToFront(elem)
	c.hits.Add(1)
	return elem.Value.(*entry[V]).value, true
}

// Set stores value under key, evicting the least recently used entry when full.
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	} else {
		c.evictIfFull()
	}
	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value})
}

// Acquire returns the value for key and holds it until the returned release
// func is called. A held value that leaves the cache meanwhile is not passed
// to onEvict before it is released. release is safe to call more than once.
func (c *LRU[V]) Acquire(key string) (V, func(), bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, func() {}, false
	}
	c.order.MoveToFront(elem)
	c.hits.Add(1)
	e := elem.Value.(*entry[V])
	return e.value, c.hold(e), true
}

// SetAndAcquire is SetIfAbsent followed by Acquire on the value the cache
// holds, as one atomic step.
func (c *LRU[V]) SetAndAcquire(key string, value V) (V, func(), bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		e := elem.Value.(*entry[V])
		return e.value, c.hold(e), false
	}
	c.evictIfFull()
	e := &entry[V]{key: key, value: value}
	c.items[key] = c.order.PushFront(e)
	return value, c.hold(e), true
}

// hold must be called with the lock held.
func (c *LRU[V]) hold(e *entry[V]) func() {
	e.refs++
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			e.refs--
			if e.refs == 0 && e.detached && c.onEvict != nil {
				c.onEvict(e.key, e.value)
			}
		})
	}
}

// evictIfFull must be called with the lock held.
func (c *LRU[V]) evictIfFull() {
	if c.order.Len() < c.capacity {
		return
	}
	if oldest := c.order.Back(); oldest != nil {
		c.removeElement(oldest)
		c.evictions.Add(1)
	}
}

// SetIfAbsent stores value unless key is already cached. It returns the value
// held by the cache afterwards and whether value was stored.
func (c *LRU[V]) SetIfAbsent(key string, value V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*entry[V]).value, false
	}
	c.evictIfFull()
	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value})
	return value, true
}

// Remove drops key from the cache. It reports whether the key was present.
func (c *LRU[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if ok {
		c.removeElement(elem)
	}
	return ok
}

// Clear empties the cache.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		c.release(elem.Value.(*entry[V]))
	}
	c.items = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}

// Len returns the number of cached entries.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys returns the cached keys from most to least recently used.
func (c *LRU[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*entry[V]).key)
	}
	return keys
}

// Stats returns a snapshot of the cache counters.
func (c *LRU[V]) Stats() Stats {
	size := c.Len()
	hits, misses := c.hits.Load(), c.misses.Load()

	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{
		Size:      size,
		Capacity:  c.capacity,
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		HitRate:   hitRate,
	}
}

// removeElement must be called with the lock held.
func (c *LRU[V]) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	e := elem.Value.(*entry[V])
	delete(c.items, e.key)
	c.release(e)
}

func (c *LRU[V]) release(e *entry[V]) {
	e.detached = true
	if e.refs > 0 {
		return
	}
	if c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
}

// Stats holds cache counters.
type Stats struct {
	Size      int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}
