package ratelimit

import (
	"sync"
	"time"

	"github.com/quotebeam/quotebeam/internal/pkg/applog"
)

// Store counts hits per key within a fixed window. Implementations must be
// safe for concurrent use.
type Store interface {
	// Incr records a hit for key and returns the count within the current
	// window, starting a fresh window when the previous one expired.
	Incr(key string, window time.Duration) (int, error)
}

// Limiter is a fixed-window request limiter. It is an abuse guard, not a
// billing-grade quota: brief over-admission at window boundaries is fine.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

// New creates a limiter allowing limit hits per key per window.
func New(store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow reports whether the hit identified by key may proceed. A store
// failure fails open; dropping legitimate traffic because the counter
// backend hiccuped is the wrong trade for a guard.
func (l *Limiter) Allow(key string) bool {
	count, err := l.store.Incr(key, l.window)
	if err != nil {
		applog.GetLogger().WithError(err).WithField("key", key).Warn("rate limit store unavailable, allowing request")
		return true
	}
	return count <= l.limit
}

type windowCounter struct {
	count  int
	start  time.Time
	window time.Duration
}

func (wc *windowCounter) expired(now time.Time) bool {
	return now.Sub(wc.start) > wc.window
}

type memoryStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
}

// NewMemoryStore creates an in-process counter store. Expired windows are
// swept by a background janitor instead of on every call.
func NewMemoryStore(gcInterval time.Duration) Store {
	s := &memoryStore{counters: make(map[string]*windowCounter)}
	if gcInterval > 0 {
		go s.janitor(gcInterval)
	}
	return s
}

func (s *memoryStore) Incr(key string, window time.Duration) (int, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	wc, ok := s.counters[key]
	if !ok || wc.expired(now) {
		wc = &windowCounter{start: now, window: window}
		s.counters[key] = wc
	}
	wc.count++
	return wc.count, nil
}

func (s *memoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		s.sweep(time.Now())
	}
}

// sweep drops counters whose own window has elapsed. Each entry carries
// its window so the sweep cadence never decides what is live.
func (s *memoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, wc := range s.counters {
		if wc.expired(now) {
			delete(s.counters, key)
		}
	}
}
