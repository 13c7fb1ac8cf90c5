package audit

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory audit store for unit tests.
type MemoryStore struct {
	mu        sync.RWMutex
	decisions []DecisionRecord
	changes   []ParameterChange

	// FailWrites makes every append fail; used to test fail-closed
	// behavior in callers.
	FailWrites error
}

// NewMemoryStore creates an empty in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AppendDecision(_ context.Context, rec DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.decisions = append(s.decisions, rec)
	return nil
}

func (s *MemoryStore) AppendParameterChange(_ context.Context, rec ParameterChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.changes = append(s.changes, rec)
	return nil
}

func (s *MemoryStore) ListDecisions(_ context.Context, filter QueryFilter) ([]DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []DecisionRecord
	for _, rec := range s.decisions {
		if !filter.From.IsZero() && rec.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !rec.CreatedAt.Before(filter.To) {
			continue
		}
		if filter.Decision != "" && rec.Decision != filter.Decision {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) ListParameterChanges(_ context.Context, filter QueryFilter) ([]ParameterChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ParameterChange
	for _, rec := range s.changes {
		if !filter.From.IsZero() && rec.OccurredAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !rec.OccurredAt.Before(filter.To) {
			continue
		}
		if filter.ParamKey != "" && rec.ParamKey != filter.ParamKey {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}
