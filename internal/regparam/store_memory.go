package regparam

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	dErrors "lendgate/pkg/domain-errors"
)

// MemoryStore is an in-memory Store for unit tests and single-process
// development. Semantics mirror the Postgres store.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]Parameter
	byKey  map[string][]uuid.UUID
}

// NewMemoryStore creates an empty in-memory parameter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[uuid.UUID]Parameter),
		byKey: make(map[string][]uuid.UUID),
	}
}

func (s *MemoryStore) Insert(_ context.Context, p Parameter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byKey[p.Key] {
		existing := s.byID[id]
		if existing.Condition.Hash() == p.Condition.Hash() && existing.EffectiveFrom.Equal(p.EffectiveFrom) {
			return dErrors.Newf(dErrors.CodeConflict,
				"parameter version already exists: %s effective %s", p.Key, p.EffectiveFrom.Format(time.RFC3339))
		}
	}

	s.byID[p.ID] = p
	s.byKey[p.Key] = append(s.byKey[p.Key], p.ID)
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*Parameter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) ListActiveByKey(_ context.Context, key string) ([]Parameter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Parameter
	for _, id := range s.byKey[key] {
		if p := s.byID[id]; p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]Parameter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Parameter
	for _, p := range s.byID {
		if filter.Key != "" && p.Key != filter.Key {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) Activate(_ context.Context, id uuid.UUID, approvedBy string, approvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.IsActive = true
	p.ApprovedBy = approvedBy
	p.ApprovedAt = &approvedAt
	s.byID[id] = p
	return nil
}

func (s *MemoryStore) Deactivate(_ context.Context, id uuid.UUID, effectiveTo time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.IsActive = false
	p.EffectiveTo = &effectiveTo
	p.ChangeReason = reason
	s.byID[id] = p
	return nil
}
