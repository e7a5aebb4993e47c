package ticket

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	claim     Claim
	expiresAt time.Time
}

// MemoryStore keeps tickets in process memory. Expired entries become
// invisible to GetDel immediately; the janitor only reclaims the map slots
// of tokens that were never presented.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry)}
}

func (s *MemoryStore) Set(_ context.Context, token string, claim Claim, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = entry{claim: claim, expiresAt: time.Now().Add(ttl)}
	return nil
}

// GetDel removes the token under the store lock, so exactly one caller can
// ever see a given claim.
func (s *MemoryStore) GetDel(_ context.Context, token string) (Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return Claim{}, ErrNotFound
	}
	delete(s.entries, token)
	if time.Now().After(e.expiresAt) {
		return Claim{}, ErrNotFound
	}
	return e.claim, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}

// StartJanitor reaps expired, never-consumed tokens until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.reapExpired()
			}
		}
	}()
}

func (s *MemoryStore) reapExpired() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, token)
		}
	}
}

func (s *MemoryStore) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
