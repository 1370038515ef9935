package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/faultline/internal/core/domain"
	"github.com/vietddude/faultline/internal/infra/storage"
)

// PatternRepo implements storage.PatternStore using PostgreSQL.
type PatternRepo struct {
	db *DB
}

// NewPatternRepo creates a new PostgreSQL pattern store.
func NewPatternRepo(db *DB) *PatternRepo {
	return &PatternRepo{db: db}
}

type patternRow struct {
	Kind             string    `db:"kind"`
	Code             string    `db:"code"`
	OccurrenceCount  int64     `db:"occurrence_count"`
	FirstSeen        time.Time `db:"first_seen"`
	LastSeen         time.Time `db:"last_seen"`
	HighestSeverity  string    `db:"highest_severity"`
	DistinctSubjects int       `db:"distinct_subjects"`
}

// Upsert creates or replaces the stored aggregate for the pattern's
// kind+code. The sliding window is not persisted.
func (r *PatternRepo) Upsert(ctx context.Context, p *domain.ErrorPattern) error {
	query := `
		INSERT INTO error_patterns
			(kind, code, occurrence_count, first_seen, last_seen, highest_severity, distinct_subjects, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (kind, code) DO UPDATE SET
			occurrence_count  = EXCLUDED.occurrence_count,
			last_seen         = EXCLUDED.last_seen,
			highest_severity  = EXCLUDED.highest_severity,
			distinct_subjects = EXCLUDED.distinct_subjects,
			updated_at        = NOW()
	`
	_, err := r.db.ExecContext(ctx, query,
		string(p.Kind),
		p.Code,
		p.OccurrenceCount,
		p.FirstSeen,
		p.LastSeen,
		p.HighestSeverity.String(),
		p.DistinctSubjects,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert error pattern: %w", err)
	}
	return nil
}

// Get returns the stored pattern for a kind+code.
func (r *PatternRepo) Get(ctx context.Context, kind domain.Kind, code string) (*domain.ErrorPattern, error) {
	query := `
		SELECT kind, code, occurrence_count, first_seen, last_seen, highest_severity, distinct_subjects
		FROM error_patterns
		WHERE kind = $1 AND code = $2
	`
	var row patternRow
	err := r.db.GetContext(ctx, &row, query, string(kind), code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrPatternNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get error pattern: %w", err)
	}
	return row.toDomain(), nil
}

// List returns all stored patterns ordered by frequency.
func (r *PatternRepo) List(ctx context.Context) ([]*domain.ErrorPattern, error) {
	query := `
		SELECT kind, code, occurrence_count, first_seen, last_seen, highest_severity, distinct_subjects
		FROM error_patterns
		ORDER BY occurrence_count DESC
	`
	var rows []patternRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list error patterns: %w", err)
	}
	out := make([]*domain.ErrorPattern, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (row patternRow) toDomain() *domain.ErrorPattern {
	p := domain.NewErrorPattern(domain.Kind(row.Kind), row.Code)
	p.OccurrenceCount = row.OccurrenceCount
	p.FirstSeen = row.FirstSeen
	p.LastSeen = row.LastSeen
	p.HighestSeverity = domain.ParseSeverity(row.HighestSeverity)
	p.DistinctSubjects = row.DistinctSubjects
	return p
}
