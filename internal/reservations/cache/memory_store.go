package cache

import (
	"context"
	"sync"

	"carbroker/pkg/model"
)

// MemoryStore keeps the last saved set in memory only.
type MemoryStore struct {
	mu    sync.Mutex
	locks []model.ReservationLock
	saves int
}

func NewMemoryStore(initial ...model.ReservationLock) *MemoryStore {
	return &MemoryStore{locks: append([]model.ReservationLock(nil), initial...)}
}

func (s *MemoryStore) LoadLocks(_ context.Context) ([]model.ReservationLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ReservationLock(nil), s.locks...), nil
}

func (s *MemoryStore) SaveLocks(_ context.Context, locks []model.ReservationLock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks = append([]model.ReservationLock(nil), locks...)
	s.saves++
	return nil
}

// Saves counts SaveLocks calls.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
