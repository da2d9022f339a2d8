package memory

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/seafood-tracker/mobile-bff/internal/cache"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Store is an in-process cache backend. Expiry is checked on read;
// expired entries are overwritten by the next write to the same key.
type Store struct {
	entries map[string]entry
	now     func() time.Time

	lock sync.RWMutex
}

func New() *Store {
	return NewWithTimeFunc(time.Now)
}

func NewWithTimeFunc(now func() time.Time) *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     now,
	}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	e, found := s.entries[key]
	if !found || !s.now().Before(e.expiresAt) {
		return nil, cache.ErrNoItem
	}

	return e.value, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.entries[key] = entry{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}

	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.entries, key)

	return nil
}

func (s *Store) DeletePattern(_ context.Context, pattern string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for key := range s.entries {
		if matched, err := path.Match(pattern, key); err != nil {
			return err
		} else if matched {
			delete(s.entries, key)
		}
	}

	return nil
}
