// Package report forwards qualifying failures to an external
// crash-analytics backend.
package report

import (
	"context"

	"github.com/vietddude/faultline/internal/core/domain"
)

// Reporter is the thin adapter the pipeline calls once per qualifying
// failure. Implementations must not panic on backend unavailability; a
// failed report is returned as an error, logged at warn by the caller and
// dropped, never retried indefinitely.
type Reporter interface {
	Report(ctx context.Context, f domain.Failure) error
}

// Noop discards every report. Used when reporting is disabled.
type Noop struct{}

func (Noop) Report(ctx context.Context, f domain.Failure) error { return nil }
