package cache

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process store with the same contract as Cache. Nothing
// survives the process.
type Memory struct {
	mu        sync.RWMutex
	order     []string
	buckets   map[string]*memBucket
	kv        map[string]string
	lastSweep time.Time
}

type memBucket struct {
	createdAt time.Time
	entries   map[string]Entry
}

func NewMemory() *Memory {
	return &Memory{
		buckets: make(map[string]*memBucket),
		kv:      make(map[string]string),
	}
}

func (m *Memory) OpenBucket(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open(name)
	return nil
}

func (m *Memory) open(name string) *memBucket {
	b, ok := m.buckets[name]
	if !ok {
		b = &memBucket{createdAt: time.Now().UTC(), entries: make(map[string]Entry)}
		m.buckets[name] = b
		m.order = append(m.order, name)
	}
	return b
}

func (m *Memory) Put(_ context.Context, bucket string, e Entry) error {
	if e.StoredAt.IsZero() {
		e.StoredAt = time.Now().UTC()
	}
	e = copyEntry(e)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open(bucket).entries[e.URL] = e
	return nil
}

func (m *Memory) Match(_ context.Context, bucket, url string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.buckets[bucket]
	if !ok {
		return Entry{}, false, nil
	}
	e, ok := b.entries[url]
	if !ok {
		return Entry{}, false, nil
	}
	return copyEntry(e), true, nil
}

func (m *Memory) MatchAny(_ context.Context, url string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, name := range m.order {
		if e, ok := m.buckets[name].entries[url]; ok {
			return copyEntry(e), true, nil
		}
	}
	return Entry{}, false, nil
}

func (m *Memory) DeleteBucket(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[name]; !ok {
		return false, nil
	}
	delete(m.buckets, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *Memory) Buckets(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...), nil
}

func (m *Memory) Stats(_ context.Context) ([]BucketStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make([]BucketStats, 0, len(m.order))
	for _, name := range m.order {
		b := m.buckets[name]
		s := BucketStats{Name: name, Entries: len(b.entries), CreatedAt: b.createdAt}
		for _, e := range b.entries {
			s.Bytes += int64(len(e.Body))
		}
		stats = append(stats, s)
	}
	return stats, nil
}

func (m *Memory) NeedsSweep(interval time.Duration) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSweep.IsZero() || time.Since(m.lastSweep) > interval
}

func (m *Memory) SetLastSweep() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSweep = time.Now()
	return nil
}

func (m *Memory) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[key]
	return v, ok, nil
}

func (m *Memory) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

func (m *Memory) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}

func (m *Memory) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.kv {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func copyEntry(e Entry) Entry {
	e.Body = append([]byte(nil), e.Body...)
	if e.Header != nil {
		e.Header = e.Header.Clone()
	} else {
		e.Header = http.Header{}
	}
	return e
}
