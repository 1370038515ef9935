// Package sink provides pluggable destinations for structured log records.
package sink

import "github.com/vietddude/faultline/internal/core/domain"

// Sink is a destination for log records. Implementations own their
// buffering; Write must not block on delivery beyond that buffering.
type Sink interface {
	// Name identifies the sink in diagnostics and metrics.
	Name() string

	// Write accepts a record. Records are never deduplicated: writing
	// the same record twice stores it twice.
	Write(rec domain.LogRecord) error

	// Flush forces buffered records out.
	Flush() error

	// Close flushes and releases resources.
	Close() error
}
