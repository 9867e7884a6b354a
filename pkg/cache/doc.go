// Package cache provides generic, thread-safe in-memory LRU caches.
//
// LRUCache is a map plus an intrusive recency list under one mutex. A positive
// capacity evicts the least recently used entry on overflow; zero or negative
// capacity never evicts.
//
// Sharded spreads keys over several LRUCache shards using hash/maphash so hot
// read paths from many goroutines do not serialize on one lock. The capacity
// is split evenly, so eviction order is only exact within a shard.
//
//	c := cache.NewSharded[string, *session.Session](cache.DefaultShards, 0)
//	c.SetEvictCallback(func(id string, _ *session.Session, r cache.EvictReason) {
//		if r == cache.ReasonCapacity {
//			log.Debug("session evicted", "id", id)
//		}
//	})
//
// Eviction callbacks run under the shard lock and must not call back into the
// cache.
package cache
