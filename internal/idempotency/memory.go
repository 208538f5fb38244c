package idempotency

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	reviewID  string
	expiresAt time.Time
}

// MemoryStore keeps keys in process memory. It is used when Redis is not
// configured; keys are then only deduplicated per server instance.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-process key store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Begin(_ context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictLocked(now)

	if e, ok := s.entries[key]; ok {
		return &Record{ReviewID: e.reviewID}, nil
	}
	s.entries[key] = memoryEntry{expiresAt: now.Add(pendingTTL(s.ttl))}
	return nil, nil
}

func (s *MemoryStore) Finish(_ context.Context, key, reviewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{reviewID: reviewID, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Abort(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) evictLocked(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}
