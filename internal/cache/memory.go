package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	payload []byte
	expires time.Time
}

// Memory is an in-process Cache. Construct one per App (or per test) rather
// than sharing a package-level map.
type Memory struct {
	namespace string
	ttl       time.Duration
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// MemoryOption customizes a Memory cache.
type MemoryOption func(*Memory)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates an empty cache. A non-positive ttl uses DefaultTTL.
func NewMemory(namespace string, ttl time.Duration, opts ...MemoryOption) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Memory{
		namespace: namespace,
		ttl:       ttl,
		now:       time.Now,
		entries:   make(map[string]entry),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Memory) key(k string) string {
	if m.namespace == "" {
		return k
	}
	return m.namespace + ":" + k
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	k := m.key(key)
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[k]
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, k)
		return nil, false
	}
	return e.payload, true
}

func (m *Memory) Set(_ context.Context, key string, payload []byte) {
	m.mu.Lock()
	m.entries[m.key(key)] = entry{payload: payload, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
}

// Invalidate drops matching keys in one critical section, so a concurrent
// Get never observes a partially invalidated resource.
func (m *Memory) Invalidate(_ context.Context, fragment string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.entries {
		if strings.Contains(strings.TrimPrefix(k, m.namespace+":"), fragment) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
