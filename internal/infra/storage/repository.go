// Package storage defines the persistence interfaces for analytics state.
package storage

import (
	"context"
	"errors"

	"github.com/vietddude/faultline/internal/core/domain"
)

// ErrPatternNotFound is returned when a pattern doesn't exist.
var ErrPatternNotFound = errors.New("error pattern not found")

// PatternStore persists aggregated error patterns so analytics survive a
// restart. The sliding timestamp window is memory-only; stores keep the
// counters and bounds.
type PatternStore interface {
	// Upsert creates or updates the pattern for its kind+code.
	Upsert(ctx context.Context, p *domain.ErrorPattern) error

	// Get returns the stored pattern for a kind+code.
	Get(ctx context.Context, kind domain.Kind, code string) (*domain.ErrorPattern, error)

	// List returns all stored patterns.
	List(ctx context.Context) ([]*domain.ErrorPattern, error)
}
