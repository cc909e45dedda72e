// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"sync"
	"time"
)

type memValue struct {
	data    []byte
	expires time.Time
}

type memList struct {
	items   [][]byte
	expires time.Time
}

// MemoryStore is an in-process Store. Values are copied on the way in and
// out so callers cannot mutate stored bytes.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]memValue
	lists  map[string]*memList
	now    func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]memValue),
		lists:  make(map[string]*memList),
		now:    time.Now,
	}
}

func (m *MemoryStore) expired(t time.Time) bool {
	return !t.IsZero() && !m.now().Before(t)
}

func (m *MemoryStore) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

// Get returns a copy of the value at key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()
	if !ok || m.expired(v.expires) {
		return nil, nil
	}
	return clone(v.data), nil
}

// Set stores a copy of value at key.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = memValue{data: clone(value), expires: m.deadline(ttl)}
	return nil
}

// Append adds item to the list at listKey and refreshes its expiry.
func (m *MemoryStore) Append(_ context.Context, listKey string, item []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lists[listKey]
	if !ok || m.expired(l.expires) {
		l = &memList{}
		m.lists[listKey] = l
	}
	l.items = append(l.items, clone(item))
	l.expires = m.deadline(ttl)
	return nil
}

// GetList returns copies of the items at listKey in append order.
func (m *MemoryStore) GetList(_ context.Context, listKey string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lists[listKey]
	if !ok || m.expired(l.expires) {
		return nil, nil
	}
	out := make([][]byte, len(l.items))
	for i, it := range l.items {
		out[i] = clone(it)
	}
	return out, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
