// Package poolcache keeps the candidate pool fetched for a plan so that
// later range changes recompute against the same snapshot without going
// back to the catalog.
package poolcache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vanshika/basketwise/internal/domain"
)

// ErrPlanNotFound is returned when no pool is stored for the plan id, either
// because it never existed or because it expired.
var ErrPlanNotFound = errors.New("poolcache: plan not found")

// Pool is the immutable input of one plan computation.
type Pool struct {
	PlanID     string           `json:"planId"`
	Budget     float64          `json:"budget"`
	Desired    []string         `json:"desired"`
	Candidates []domain.Product `json:"candidates"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// Store persists pools by plan id.
type Store interface {
	Put(ctx context.Context, pool Pool) error
	Get(ctx context.Context, planID string) (Pool, error)
}

// MemoryStore is a process-local Store with the same expiry semantics as
// the Redis store. It is used when no Redis URL is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	pool      Pool
	expiresAt time.Time
}

// NewMemoryStore returns an empty store whose entries live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Put(_ context.Context, pool Pool) error {
	if pool.PlanID == "" {
		return errors.New("poolcache: plan id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, id)
		}
	}
	m.entries[pool.PlanID] = memoryEntry{pool: pool, expiresAt: now.Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, planID string) (Pool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[planID]
	if !ok || m.now().After(e.expiresAt) {
		return Pool{}, ErrPlanNotFound
	}
	return e.pool, nil
}
