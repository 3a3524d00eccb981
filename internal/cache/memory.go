package cache

import (
	"context"
	"sync"
	"time"
)

const defaultMemoryMaxEntries = 1024

type memItem struct {
	v       []byte
	expires time.Time // zero means no expiry
}

func (it memItem) expired(now time.Time) bool {
	return !it.expires.IsZero() && now.After(it.expires)
}

// MemoryStore is a process-local cache bounded to MaxEntries. When full, expired
// entries go first, then the entry closest to expiry.
type MemoryStore struct {
	MaxEntries int

	mu    sync.Mutex
	items map[string]memItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{MaxEntries: defaultMemoryMaxEntries, items: map[string]memItem{}, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	if it.expired(s.now()) {
		delete(s.items, key)
		return nil, false, nil
	}
	return append([]byte(nil), it.v...), true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	it := memItem{v: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expires = s.now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[key]; !exists {
		s.makeRoom()
	}
	s.items[key] = it
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// makeRoom must be called with mu held.
func (s *MemoryStore) makeRoom() {
	max := s.MaxEntries
	if max <= 0 || len(s.items) < max {
		return
	}
	now := s.now()
	for k, it := range s.items {
		if it.expired(now) {
			delete(s.items, k)
		}
	}
	for len(s.items) >= max {
		victim := ""
		var soonest time.Time
		for k, it := range s.items {
			if victim == "" || (!it.expires.IsZero() && (soonest.IsZero() || it.expires.Before(soonest))) {
				victim, soonest = k, it.expires
			}
		}
		delete(s.items, victim)
	}
}
