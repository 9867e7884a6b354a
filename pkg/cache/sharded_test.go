package cache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/cache"
)

func TestSharded(t *testing.T) {
	t.Run("put get remove", func(t *testing.T) {
		c := cache.NewSharded[string, int](4, 0)

		_, existed := c.Put("a", 1)
		assert.False(t, existed)

		val, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 1, val)

		old, existed := c.Put("a", 2)
		assert.True(t, existed)
		assert.Equal(t, 1, old)

		val, ok = c.Peek("a")
		require.True(t, ok)
		assert.Equal(t, 2, val)

		removed, ok := c.Remove("a")
		assert.True(t, ok)
		assert.Equal(t, 2, removed)

		_, ok = c.Get("a")
		assert.False(t, ok)
	})

	t.Run("unbounded keeps every key", func(t *testing.T) {
		c := cache.NewSharded[string, int](0, 0)

		for i := range 5000 {
			c.Put(fmt.Sprintf("key-%d", i), i)
		}
		assert.Equal(t, 5000, c.Len())
	})

	t.Run("bounded never exceeds capacity", func(t *testing.T) {
		c := cache.NewSharded[int, int](4, 40)

		for i := range 1000 {
			c.Put(i, i)
		}
		assert.LessOrEqual(t, c.Len(), 40)
		assert.Positive(t, c.Len())
	})

	t.Run("evict callback and clear", func(t *testing.T) {
		c := cache.NewSharded[string, int](2, 0)

		var mu sync.Mutex
		evicted := map[string]int{}
		c.SetEvictCallback(func(key string, value int, reason cache.EvictReason) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, cache.ReasonCleared, reason)
			evicted[key] = value
		})

		c.Put("a", 1)
		c.Put("b", 2)
		c.Clear()

		assert.Equal(t, 0, c.Len())
		assert.Equal(t, map[string]int{"a": 1, "b": 2}, evicted)
	})

	t.Run("concurrent access", func(t *testing.T) {
		c := cache.NewSharded[int, int](8, 0)

		var wg sync.WaitGroup
		for i := range 200 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				c.Put(i, i)
			}()
			go func() {
				defer wg.Done()
				c.Get(i)
			}()
		}
		wg.Wait()

		assert.Equal(t, 200, c.Len())
	})
}
