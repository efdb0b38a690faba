package session

import (
	"context"
	"sync"

	"github.com/xenking/checkout-flow/internal/domain/basket"
)

var _ basket.Store = (*MemoryStore)(nil)

// MemoryStore is an in-process basket store used in tests and single-node
// development. Baskets are cloned on read and write so callers never share
// element slices with the stored copy.
type MemoryStore struct {
	mu      sync.RWMutex
	baskets map[string]*basket.Basket
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{baskets: make(map[string]*basket.Basket)}
}

// Get returns a copy of the session basket, or a fresh empty basket.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*basket.Basket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.baskets[sessionID]
	if !ok {
		return basket.New(), nil
	}
	return b.Clone(), nil
}

// Set stores a copy of the basket under the session key.
func (s *MemoryStore) Set(_ context.Context, sessionID string, b *basket.Basket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.baskets[sessionID] = b.Clone()
	return nil
}

// Reset removes the session basket.
func (s *MemoryStore) Reset(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.baskets, sessionID)
	return nil
}
