package grading

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-memory grade table for unit tests and
// single-process development.
type MemoryStore struct {
	mu         sync.RWMutex
	byRegHash  map[string]EnterpriseRecord
	byName     map[string]EnterpriseRecord
	industries map[string]IndustryRecord
}

// NewMemoryStore creates an empty in-memory grade store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byRegHash:  make(map[string]EnterpriseRecord),
		byName:     make(map[string]EnterpriseRecord),
		industries: make(map[string]IndustryRecord),
	}
}

// PutEnterprise registers a graded employer.
func (s *MemoryStore) PutEnterprise(rec EnterpriseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRegHash[rec.RegHash] = rec
	s.byName[normalizeName(rec.Name)] = rec
}

// PutIndustry registers a graded industry code.
func (s *MemoryStore) PutIndustry(rec IndustryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.industries[rec.IndustryCode] = rec
}

func (s *MemoryStore) EnterpriseByRegHash(_ context.Context, regHash string) (*EnterpriseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byRegHash[regHash]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) EnterpriseByName(_ context.Context, name string) (*EnterpriseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byName[normalizeName(name)]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) IndustryByCode(_ context.Context, code string) (*IndustryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.industries[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
