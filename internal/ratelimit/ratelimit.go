// Package ratelimit keeps per-client token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Store decides whether a request keyed by client may proceed. Keys that stay idle
// longer than the store's expiry are forgotten.
type Store interface {
	Allow(key string) bool
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryStore holds one limiter per key in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	clients map[string]*entry
	limit   rate.Limit
	burst   int
	expiry  time.Duration
	now     func() time.Time
	lastGC  time.Time
}

func NewMemoryStore(rps float64, burst int, expiry time.Duration) *MemoryStore {
	return &MemoryStore{
		clients: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		expiry:  expiry,
		now:     time.Now,
	}
}

func (s *MemoryStore) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastGC) > s.expiry {
		s.evict(now)
	}

	e, ok := s.clients[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.clients[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (s *MemoryStore) evict(now time.Time) {
	for key, e := range s.clients {
		if now.Sub(e.lastSeen) > s.expiry {
			delete(s.clients, key)
		}
	}
	s.lastGC = now
}

// Len reports the number of tracked clients.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
