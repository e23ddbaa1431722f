package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store counts hits per key in fixed windows. Increment adds one hit and
// returns the new count and the time left in the current window, atomically.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

const sweepInterval = time.Minute

type counter struct {
	hits    int64
	resetAt time.Time
}

// MemoryStore keeps counters in process. Counters are not shared between
// replicas.
type MemoryStore struct {
	mu        sync.Mutex
	counters  map[string]*counter
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		counters:  make(map[string]*counter),
		now:       now,
		lastSweep: now(),
	}
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= sweepInterval {
		s.sweep(now)
	}

	c, ok := s.counters[key]
	if !ok || !now.Before(c.resetAt) {
		c = &counter{resetAt: now.Add(window)}
		s.counters[key] = c
	}
	c.hits++
	return c.hits, c.resetAt.Sub(now), nil
}

// Len reports how many live and not yet swept counters are held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}

func (s *MemoryStore) sweep(now time.Time) {
	for key, c := range s.counters {
		if !now.Before(c.resetAt) {
			delete(s.counters, key)
		}
	}
	s.lastSweep = now
}
