// Package memory provides the in-memory pattern store used when no
// database is configured.
package memory

import (
	"context"
	"sync"

	"github.com/vietddude/faultline/internal/core/domain"
	"github.com/vietddude/faultline/internal/infra/storage"
)

// PatternStore implements storage.PatternStore in memory.
type PatternStore struct {
	mu       sync.RWMutex
	patterns map[string]domain.ErrorPattern
}

// NewPatternStore creates an empty in-memory pattern store.
func NewPatternStore() *PatternStore {
	return &PatternStore{patterns: make(map[string]domain.ErrorPattern)}
}

// Upsert stores a copy of the pattern.
func (s *PatternStore) Upsert(ctx context.Context, p *domain.ErrorPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns[p.Key()] = *p
	return nil
}

// Get returns the stored pattern for a kind+code.
func (s *PatternStore) Get(ctx context.Context, kind domain.Kind, code string) (*domain.ErrorPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patterns[domain.PatternKey(kind, code)]
	if !ok {
		return nil, storage.ErrPatternNotFound
	}
	out := p
	return &out, nil
}

// List returns all stored patterns.
func (s *PatternStore) List(ctx context.Context) ([]*domain.ErrorPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.ErrorPattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		cp := p
		out = append(out, &cp)
	}
	return out, nil
}
