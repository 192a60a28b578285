package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu      sync.Mutex
	results []Result
	byID    map[string]int
}

func NewMemory() *Memory {
	return &Memory{byID: map[string]int{}}
}

func (m *Memory) SaveResult(_ context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if i, ok := m.byID[r.ID]; ok {
		m.results[i] = r
		return nil
	}
	m.byID[r.ID] = len(m.results)
	m.results = append(m.results, r)
	return nil
}

func (m *Memory) GetResult(_ context.Context, id string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byID[id]
	if !ok {
		return Result{}, ErrNotFound
	}
	return m.results[i], nil
}

func (m *Memory) ListResults(_ context.Context, instance string, limit int) ([]Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit = clampLimit(limit)
	out := []Result{}
	for i := len(m.results) - 1; i >= 0 && len(out) < limit; i-- {
		if instance == "" || m.results[i].Instance == instance {
			out = append(out, m.results[i])
		}
	}
	return out, nil
}
