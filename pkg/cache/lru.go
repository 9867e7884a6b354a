package cache

import "sync"

// EvictReason tells an eviction callback why an entry left the cache.
type EvictReason int

const (
	// ReasonCapacity means the entry was the least recently used one on overflow.
	ReasonCapacity EvictReason = iota
	// ReasonRemoved means Remove was called for the key.
	ReasonRemoved
	// ReasonCleared means Clear dropped every entry.
	ReasonCleared
)

func (r EvictReason) String() string {
	switch r {
	case ReasonCapacity:
		return "capacity"
	case ReasonRemoved:
		return "removed"
	case ReasonCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// EvictFunc observes entries leaving a cache. It runs with the owning lock
// held and must not call back into the cache.
type EvictFunc[K comparable, V any] func(key K, value V, reason EvictReason)

type node[K comparable, V any] struct {
	key        K
	value      V
	prev, next *node[K, V]
}

// LRUCache is a thread-safe LRU cache. A positive capacity evicts the least
// recently used entry on overflow; zero or negative capacity never evicts.
type LRUCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*node[K, V]
	root     node[K, V] // sentinel: root.next is most recent, root.prev least
	onEvict  EvictFunc[K, V]
}

func NewLRUCache[K comparable, V any](capacity int) *LRUCache[K, V] {
	c := &LRUCache[K, V]{
		capacity: max(capacity, 0),
		items:    make(map[K]*node[K, V]),
	}
	c.root.next = &c.root
	c.root.prev = &c.root
	return c
}

func (c *LRUCache[K, V]) SetEvictCallback(fn EvictFunc[K, V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the value for key and marks it most recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(n)
	return n.value, true
}

// Peek returns the value for key without touching recency.
func (c *LRUCache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.items[key]; ok {
		return n.value, true
	}
	var zero V
	return zero, false
}

// Put stores value under key and returns the replaced value, if any.
func (c *LRUCache[K, V]) Put(key K, value V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.items[key]; ok {
		old := n.value
		n.value = value
		c.moveToFront(n)
		return old, true
	}

	n := &node[K, V]{key: key, value: value}
	c.items[key] = n
	c.insertFront(n)

	if c.capacity > 0 && len(c.items) > c.capacity {
		c.drop(c.root.prev, ReasonCapacity)
	}

	var zero V
	return zero, false
}

func (c *LRUCache[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.drop(n, ReasonRemoved)
	return n.value, true
}

// Capacity returns the configured bound, 0 when unbounded.
func (c *LRUCache[K, V]) Capacity() int {
	return c.capacity
}

func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear drops every entry, least recently used first.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.root.prev != &c.root {
		c.drop(c.root.prev, ReasonCleared)
	}
}

// The helpers below expect c.mu to be held.

func (c *LRUCache[K, V]) insertFront(n *node[K, V]) {
	n.prev = &c.root
	n.next = c.root.next
	c.root.next.prev = n
	c.root.next = n
}

func (c *LRUCache[K, V]) unlink(n *node[K, V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
}

func (c *LRUCache[K, V]) moveToFront(n *node[K, V]) {
	if c.root.next == n {
		return
	}
	c.unlink(n)
	c.insertFront(n)
}

func (c *LRUCache[K, V]) drop(n *node[K, V], reason EvictReason) {
	c.unlink(n)
	delete(c.items, n.key)
	if c.onEvict != nil {
		c.onEvict(n.key, n.value, reason)
	}
}
