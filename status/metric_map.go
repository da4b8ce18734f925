package status

import "sync"

// MetricMap holds one *T per key in first-registration order
// Registration takes the write lock; callers keep the returned pointer and update it lock-free
type MetricMap[T any] struct {
	mu    sync.RWMutex
	index map[string]int
	keys  []string
	items []*T
}

func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{index: make(map[string]int)}
}

// Get returns the metric for key, registering a zero T on first use
func (m *MetricMap[T]) Get(key string) *T {
	if ptr, ok := m.Lookup(key); ok {
		return ptr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.index[key]; ok {
		return m.items[i]
	}
	ptr := new(T)
	m.index[key] = len(m.items)
	m.keys = append(m.keys, key)
	m.items = append(m.items, ptr)
	return ptr
}

// Lookup returns the metric for key without registering it
func (m *MetricMap[T]) Lookup(key string) (*T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i, ok := m.index[key]; ok {
		return m.items[i], true
	}
	return nil, false
}

// Range visits metrics in registration order; fn must not call Get
func (m *MetricMap[T]) Range(fn func(key string, ptr *T)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, k := range m.keys {
		fn(k, m.items[i])
	}
}

func (m *MetricMap[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
