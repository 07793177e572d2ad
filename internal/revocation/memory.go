package revocation

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	cutoff    time.Time
	expiresAt time.Time
}

// MemoryStore keeps revocation cutoffs in process. A restart drops the
// state, which is acceptable because entries outlive the longest access
// token by construction only within one process lifetime; multi-instance
// deployments should use the Redis store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ticker  *time.Ticker
	done    chan struct{}
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		ticker:  time.NewTicker(time.Minute),
		done:    make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-s.ticker.C:
			now := time.Now()
			s.mu.Lock()
			for k, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, k)
				}
			}
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) Stop() {
	s.ticker.Stop()
	close(s.done)
}

func (s *MemoryStore) SetUserCutoff(_ context.Context, userID string, ttl time.Duration) error {
	now := time.Now()
	s.mu.Lock()
	s.entries[userID] = memoryEntry{cutoff: now, expiresAt: now.Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) UserCutoff(_ context.Context, userID string) (time.Time, error) {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return time.Time{}, nil
	}
	return e.cutoff, nil
}
