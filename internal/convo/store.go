// Package convo keeps per-note continuation state for continuous prompts.
package convo

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// TTL is how long continuation state stays usable after its last update.
	TTL = 30 * time.Minute
	// SweepInterval is how often the reaper evicts expired entries.
	SweepInterval = 2 * time.Hour
)

type entry struct {
	tokens   []int
	storedAt time.Time
}

// Store is an in-memory, time-expiring map from a note+prompt key to the
// inference backend's opaque continuation tokens. Concurrent same-key
// updates race benignly: the later Put wins.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time // overridable in tests
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the continuation tokens for key. An entry older than TTL is
// evicted and reported absent.
func (s *Store) Get(key string) ([]int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.storedAt) > TTL {
		delete(s.entries, key)
		return nil, false
	}
	return e.tokens, true
}

// Put stores tokens for key with the current timestamp. An empty token
// list deletes the entry instead.
func (s *Store) Put(key string, tokens []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tokens) == 0 {
		delete(s.entries, key)
		return
	}
	s.entries[key] = entry{tokens: tokens, storedAt: s.now()}
}

// Len returns the number of live entries (expired ones included until swept).
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// sweep evicts every expired entry and returns how many were removed.
func (s *Store) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	cutoff := s.now().Add(-TTL)
	for k, e := range s.entries {
		if e.storedAt.Before(cutoff) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Reap runs the periodic sweep until ctx is cancelled, so the map cannot
// grow unboundedly across a long-running session.
func (s *Store) Reap(ctx context.Context, logger *slog.Logger) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				logger.Debug("convo: swept expired entries", slog.Int("removed", n))
			}
		}
	}
}
