// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is an in-process cache guarded by a mutex. With maxEntries 0 it
// grows without bound for the life of the process.
type Memory struct {
	mu         sync.Mutex
	maxEntries int
	order      *list.List
	items      map[string]*list.Element
	now        func() time.Time
}

// NewMemory returns an empty memory cache. A positive maxEntries evicts the
// least recently used entry once the bound is exceeded.
func NewMemory(maxEntries int) *Memory {
	return &Memory{
		maxEntries: maxEntries,
		order:      list.New(),
		items:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

// Init is a no-op for the memory cache.
func (m *Memory) Init(context.Context) error { return nil }

// Get returns the value for key.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return "", false, nil
	}
	m.order.MoveToFront(el)
	return el.Value.(*Entry).Value, true, nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		e := el.Value.(*Entry)
		e.Value = value
		e.CreatedAt = m.now()
		m.order.MoveToFront(el)
		return nil
	}

	m.items[key] = m.order.PushFront(&Entry{Key: key, Value: value, CreatedAt: m.now()})
	if m.maxEntries > 0 {
		for m.order.Len() > m.maxEntries {
			oldest := m.order.Back()
			m.order.Remove(oldest)
			delete(m.items, oldest.Value.(*Entry).Key)
		}
	}
	return nil
}

// Clear removes every entry.
func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order.Init()
	m.items = make(map[string]*list.Element)
	return nil
}

// Close is a no-op for the memory cache.
func (m *Memory) Close() error { return nil }

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// Entries returns a snapshot of the entries, most recently used first.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, 0, m.order.Len())
	for el := m.order.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value.(*Entry))
	}
	return out
}
