package domain

import "time"

// ErrorPattern aggregates occurrences of one kind+code over time. It is
// created lazily on first occurrence and never deleted; the recent-window
// and subject set are bounded so long-lived patterns stay small.
type ErrorPattern struct {
	Kind            Kind
	Code            string
	OccurrenceCount int64
	FirstSeen       time.Time
	LastSeen        time.Time
	HighestSeverity Severity

	// Recent is a bounded sliding window of occurrence timestamps used
	// for spike detection.
	Recent []time.Time

	// Subjects holds distinct affected-subject identifiers for impact
	// sizing (bounded). Only DistinctSubjects survives persistence.
	Subjects map[string]struct{}

	// DistinctSubjects mirrors len(Subjects) so stores can persist the
	// impact size without the raw identifiers.
	DistinctSubjects int

	// SpikeActive is set while the windowed count is above the spike
	// threshold, so one surge produces one alert.
	SpikeActive bool
}

// PatternKey builds the map key for a kind+code pair.
func PatternKey(kind Kind, code string) string {
	return string(kind) + ":" + code
}

// Key returns the pattern's map key.
func (p *ErrorPattern) Key() string { return PatternKey(p.Kind, p.Code) }

// NewErrorPattern creates an empty pattern for a kind+code pair.
func NewErrorPattern(kind Kind, code string) *ErrorPattern {
	return &ErrorPattern{
		Kind:     kind,
		Code:     code,
		Subjects: make(map[string]struct{}),
	}
}

// RecordOccurrence folds one occurrence into the pattern. maxRecent bounds
// the sliding window, maxSubjects bounds the distinct-subject set.
func (p *ErrorPattern) RecordOccurrence(at time.Time, severity Severity, subjectID string, maxRecent, maxSubjects int) {
	p.OccurrenceCount++
	if p.FirstSeen.IsZero() {
		p.FirstSeen = at
	}
	p.LastSeen = at
	if severity > p.HighestSeverity {
		p.HighestSeverity = severity
	}

	p.Recent = append(p.Recent, at)
	if len(p.Recent) > maxRecent {
		p.Recent = p.Recent[len(p.Recent)-maxRecent:]
	}

	if subjectID != "" && len(p.Subjects) < maxSubjects {
		p.Subjects[subjectID] = struct{}{}
	}
	if len(p.Subjects) > p.DistinctSubjects {
		p.DistinctSubjects = len(p.Subjects)
	}
}

// WindowedCount returns how many recorded occurrences fall after since.
// The count saturates at the window bound.
func (p *ErrorPattern) WindowedCount(since time.Time) int {
	n := 0
	for i := len(p.Recent) - 1; i >= 0; i-- {
		if p.Recent[i].Before(since) {
			break
		}
		n++
	}
	return n
}
