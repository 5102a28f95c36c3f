package state

import (
	"context"
	"sync"
)

// MemoryStorage keeps sessions in process memory. State is lost on restart.
type MemoryStorage struct {
	mu       sync.RWMutex
	states   map[int64]State
	products map[int64]string
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage returns an empty in-memory Storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		states:   make(map[int64]State),
		products: make(map[int64]string),
	}
}

// GetState returns the stored state or ErrStateNotFound.
func (s *MemoryStorage) GetState(_ context.Context, userID int64) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[userID]
	if !ok {
		return "", ErrStateNotFound
	}
	return st, nil
}

// SetState saves the state value as-is.
func (s *MemoryStorage) SetState(_ context.Context, userID int64, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[userID] = st
	return nil
}

// GetSelectedProduct returns the remembered product id or "".
func (s *MemoryStorage) GetSelectedProduct(_ context.Context, userID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.products[userID], nil
}

// SetSelectedProduct stores the product id; "" clears it.
func (s *MemoryStorage) SetSelectedProduct(_ context.Context, userID int64, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if productID == "" {
		delete(s.products, userID)
		return nil
	}
	s.products[userID] = productID
	return nil
}

// CountByState groups stored sessions by state value.
func (s *MemoryStorage) CountByState(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(s.states))
	for _, st := range s.states {
		counts[string(st)]++
	}
	return counts, nil
}
