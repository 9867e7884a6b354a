package session

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// ErrMemoryAdapterClosed is returned by MemoryAdapter operations outside Open/Close.
var ErrMemoryAdapterClosed = errors.New("session.memory_adapter_closed")

// MemoryAdapter keeps sessions in process memory. It supports expiry scans
// and is meant for tests and single-node deployments.
type MemoryAdapter struct {
	mu     sync.RWMutex
	open   bool
	spaces map[string]map[string]memoryItem
}

type memoryItem struct {
	value      []byte
	accessedAt time.Time
}

// Compile-time interface checks
var (
	_ Adapter = (*MemoryAdapter)(nil)
	_ Pinger  = (*MemoryAdapter)(nil)
)

// NewMemoryAdapter creates an empty in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{spaces: make(map[string]map[string]memoryItem)}
}

func (m *MemoryAdapter) Name() string     { return "memory" }
func (m *MemoryAdapter) DefaultPort() int { return 0 }

// Open marks the adapter usable. The address is ignored.
func (m *MemoryAdapter) Open(ctx context.Context, _ Address) error {
	if err := ctx.Err(); err != nil {
		return BackendError(err)
	}

	m.mu.Lock()
	m.open = true
	m.mu.Unlock()
	return nil
}

// Close marks the adapter unusable. Stored data is kept.
func (m *MemoryAdapter) Close(context.Context) error {
	m.mu.Lock()
	m.open = false
	m.mu.Unlock()
	return nil
}

func (m *MemoryAdapter) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.open {
		return BackendError(ErrMemoryAdapterClosed)
	}
	return nil
}

func (m *MemoryAdapter) Put(ctx context.Context, namespace, key string, value []byte, accessedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return BackendError(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return BackendError(ErrMemoryAdapterClosed)
	}

	space, ok := m.spaces[namespace]
	if !ok {
		space = make(map[string]memoryItem)
		m.spaces[namespace] = space
	}
	space[key] = memoryItem{value: bytes.Clone(value), accessedAt: accessedAt}

	return nil
}

// Get returns a copy of the stored value, or nil when absent.
func (m *MemoryAdapter) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, BackendError(err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.open {
		return nil, BackendError(ErrMemoryAdapterClosed)
	}

	item, ok := m.spaces[namespace][key]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(item.value), nil
}

func (m *MemoryAdapter) Delete(ctx context.Context, namespace, key string) error {
	if err := ctx.Err(); err != nil {
		return BackendError(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return BackendError(ErrMemoryAdapterClosed)
	}

	delete(m.spaces[namespace], key)
	return nil
}

// ExpiredKeys returns keys last accessed strictly before the cutoff, sorted.
func (m *MemoryAdapter) ExpiredKeys(ctx context.Context, namespace string, before time.Time) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, BackendError(err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.open {
		return nil, BackendError(ErrMemoryAdapterClosed)
	}

	keys := []string{}
	for key, item := range m.spaces[namespace] {
		if item.accessedAt.Before(before) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)

	return keys, nil
}

// Len reports how many entries a namespace holds.
func (m *MemoryAdapter) Len(namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.spaces[namespace])
}
