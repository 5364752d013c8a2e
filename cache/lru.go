package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a bounded key/value cache with per-entry expiry.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Len() int
	Purge()
}

type entry[V any] struct {
	key     string
	value   V
	expires time.Time
	element *list.Element
}

type lruCache[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*entry[V]
	order    *list.List
	now      func() time.Time
}

// NewLRU creates an LRU cache with capacity and default TTL.
func NewLRU[V any](capacity int, ttl time.Duration) Cache[V] {
	return newLRU[V](capacity, ttl, time.Now)
}

func newLRU[V any](capacity int, ttl time.Duration, now func() time.Time) *lruCache[V] {
	if capacity <= 0 {
		capacity = 64
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &lruCache[V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*entry[V], capacity),
		order:    list.New(),
		now:      now,
	}
}

func (c *lruCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		if c.now().Before(ent.expires) {
			c.order.MoveToFront(ent.element)
			return ent.value, true
		}
		c.removeEntry(ent)
	}
	var zero V
	return zero, false
}

func (c *lruCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.ttl
	}
	if ent, ok := c.items[key]; ok {
		ent.value = value
		ent.expires = c.now().Add(ttl)
		c.order.MoveToFront(ent.element)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictOldest()
	}
	ent := &entry[V]{key: key, value: value, expires: c.now().Add(ttl)}
	ent.element = c.order.PushFront(ent)
	c.items[key] = ent
}

func (c *lruCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *lruCache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry[V], c.capacity)
	c.order.Init()
}

func (c *lruCache[V]) evictOldest() {
	if elem := c.order.Back(); elem != nil {
		c.removeEntry(elem.Value.(*entry[V]))
	}
}

func (c *lruCache[V]) removeEntry(ent *entry[V]) {
	c.order.Remove(ent.element)
	delete(c.items, ent.key)
}
