package cache

import (
	"context"
	"sync"
	"time"

	"RiskSentinel/internal/model"
)

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if ok {
		e.Series.Points = clonePoints(e.Series.Points)
	}
	return e, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, series model.PriceSeries) error {
	series.Points = clonePoints(series.Points)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry{Series: series, StoredAt: m.now()}
	return nil
}

func (m *MemoryStore) Purge(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if e.StoredAt.Before(olderThan) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Close() error { return nil }

func clonePoints(pts []model.PricePoint) []model.PricePoint {
	out := make([]model.PricePoint, len(pts))
	copy(out, pts)
	return out
}
