package memory

import (
	"context"
	"fmt"
	"sync"

	"lingokit/core"
	"lingokit/engine"
)

// Store is a concurrent in-memory Storage implementation with per-user
// version checks. Suitable for tests and single-process deployments.
type Store struct {
	users sync.Map // map[core.UserID]*userSlot
}

type userSlot struct {
	mu      sync.Mutex
	rec     core.PointRecord
	version uint64
}

func New() *Store { return &Store{} }

func (s *Store) slot(user core.UserID) *userSlot {
	if v, ok := s.users.Load(user); ok {
		return v.(*userSlot)
	}
	actual, _ := s.users.LoadOrStore(user, &userSlot{})
	return actual.(*userSlot)
}

func (s *Store) Get(_ context.Context, user core.UserID) (core.PointRecord, uint64, error) {
	slot := s.slot(user)
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.version == 0 {
		return core.PointRecord{}, 0, nil
	}
	return slot.rec.Clone(), slot.version, nil
}

func (s *Store) Put(_ context.Context, user core.UserID, rec core.PointRecord, expected uint64) (uint64, error) {
	slot := s.slot(user)
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.version != expected {
		return 0, fmt.Errorf("%w: version %d, expected %d", core.ErrConflict, slot.version, expected)
	}
	slot.rec = rec.Clone()
	slot.version = expected + 1
	return slot.version, nil
}

func (s *Store) List(context.Context) ([]core.PointRecord, error) {
	var out []core.PointRecord
	s.users.Range(func(_, v any) bool {
		slot := v.(*userSlot)
		slot.mu.Lock()
		if slot.version != 0 {
			out = append(out, slot.rec.Clone())
		}
		slot.mu.Unlock()
		return true
	})
	return out, nil
}

var _ engine.Storage = (*Store)(nil)
