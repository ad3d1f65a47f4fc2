package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mlmshop/backend/internal/domain/shared"
)

// defaultSweepInterval is how often expired keys are dropped
const defaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore remembers processed keys in a map.
// State is per process; a second instance will not see these keys, so
// the database guard stays authoritative.
type InMemoryIdempotencyStore struct {
	mu      sync.RWMutex
	expires map[string]time.Time
	now     func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// InMemoryOption configures an InMemoryIdempotencyStore
type InMemoryOption func(*inMemoryOptions)

type inMemoryOptions struct {
	sweepInterval time.Duration
	now           func() time.Time
}

// WithSweepInterval overrides how often expired keys are removed
func WithSweepInterval(d time.Duration) InMemoryOption {
	return func(o *inMemoryOptions) {
		if d > 0 {
			o.sweepInterval = d
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) InMemoryOption {
	return func(o *inMemoryOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewInMemoryIdempotencyStore creates the store and starts its sweeper
func NewInMemoryIdempotencyStore(opts ...InMemoryOption) *InMemoryIdempotencyStore {
	o := inMemoryOptions{sweepInterval: defaultSweepInterval, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	s := &InMemoryIdempotencyStore{
		expires: make(map[string]time.Time),
		now:     o.now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.sweepLoop(o.sweepInterval)
	return s
}

// MarkProcessed records key until ttl elapses. It reports false when the
// key was already recorded and has not expired.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if exp, ok := s.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expires[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether key is recorded and not expired
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	exp, ok := s.expires[key]
	s.mu.RUnlock()
	return ok && s.now().Before(exp), nil
}

// Close stops the sweeper. Calling it more than once is safe.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
	return nil
}

// Len returns the number of keys held, expired or not
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expires)
}

func (s *InMemoryIdempotencyStore) sweepLoop(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep drops every expired key
func (s *InMemoryIdempotencyStore) sweep() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, key)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
