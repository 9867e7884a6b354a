package cache

import "hash/maphash"

// DefaultShards is used by NewSharded when shards <= 0.
const DefaultShards = 16

// Sharded spreads keys over independent LRU caches to reduce lock
// contention. Eviction order is tracked per shard.
type Sharded[K comparable, V any] struct {
	seed   maphash.Seed
	shards []*LRUCache[K, V]
}

// NewSharded creates a sharded cache holding up to capacity items in total.
// Zero or negative capacity means unbounded.
func NewSharded[K comparable, V any](shards, capacity int) *Sharded[K, V] {
	if shards <= 0 {
		shards = DefaultShards
	}

	perShard := 0
	if capacity > 0 {
		perShard = max(1, (capacity+shards-1)/shards)
	}

	s := &Sharded[K, V]{
		seed:   maphash.MakeSeed(),
		shards: make([]*LRUCache[K, V], shards),
	}
	for i := range s.shards {
		s.shards[i] = NewLRUCache[K, V](perShard)
	}
	return s
}

func (s *Sharded[K, V]) shard(key K) *LRUCache[K, V] {
	h := maphash.Comparable(s.seed, key)
	return s.shards[h%uint64(len(s.shards))]
}

func (s *Sharded[K, V]) Get(key K) (V, bool) {
	return s.shard(key).Get(key)
}

func (s *Sharded[K, V]) Peek(key K) (V, bool) {
	return s.shard(key).Peek(key)
}

func (s *Sharded[K, V]) Put(key K, value V) (V, bool) {
	return s.shard(key).Put(key, value)
}

func (s *Sharded[K, V]) Remove(key K) (V, bool) {
	return s.shard(key).Remove(key)
}

// SetEvictCallback installs fn on every shard.
func (s *Sharded[K, V]) SetEvictCallback(fn EvictFunc[K, V]) {
	for _, c := range s.shards {
		c.SetEvictCallback(fn)
	}
}

func (s *Sharded[K, V]) Len() int {
	n := 0
	for _, c := range s.shards {
		n += c.Len()
	}
	return n
}

func (s *Sharded[K, V]) Clear() {
	for _, c := range s.shards {
		c.Clear()
	}
}
