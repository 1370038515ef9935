// Package logging fans structured log records out to registered sinks.
package logging

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/vietddude/faultline/internal/core/domain"
	"github.com/vietddude/faultline/internal/logging/sink"
	"github.com/vietddude/faultline/internal/metrics"
)

// Logger routes records to all registered sinks. Sink failures are
// isolated: one failing sink never stops delivery to the rest and never
// propagates to the caller.
type Logger struct {
	mu     sync.RWMutex
	min    domain.Level
	global domain.Context
	sinks  []sink.Sink

	// diag receives sink failures; it must never be one of the sinks.
	diag *slog.Logger
}

// New creates a logger with the given minimum level and sinks.
func New(min domain.Level, sinks ...sink.Sink) *Logger {
	return &Logger{
		min:   min,
		sinks: sinks,
		diag:  slog.Default(),
	}
}

// AddSink registers an additional sink.
func (l *Logger) AddSink(s sink.Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, s)
}

// SetMinLevel changes the per-process minimum level.
func (l *Logger) SetMinLevel(min domain.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.min = min
}

// AddGlobal appends a process-wide attribute merged into every record.
// Global context is append-only for the process lifetime.
func (l *Logger) AddGlobal(key string, value any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.global = l.global.With(key, value)
}

// GlobalContext returns a copy of the process-wide context.
func (l *Logger) GlobalContext() domain.Context {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.global.Merge(nil)
}

// Emit builds a record and delivers it to every sink at or above the
// minimum level. Synchronous with respect to buffering only; delivery is
// each sink's concern.
func (l *Logger) Emit(level domain.Level, message string, ctx domain.Context) {
	l.mu.RLock()
	min := l.min
	global := l.global
	sinks := l.sinks
	l.mu.RUnlock()

	if level < min {
		return
	}

	rec := domain.NewRecord(level, message, global.Merge(ctx))
	l.deliver(rec, sinks)
}

// EmitRecord delivers a pre-built record, merging in the global context.
func (l *Logger) EmitRecord(rec domain.LogRecord) {
	l.mu.RLock()
	min := l.min
	global := l.global
	sinks := l.sinks
	l.mu.RUnlock()

	if rec.Level < min {
		return
	}
	rec.Context = global.Merge(rec.Context)
	l.deliver(rec, sinks)
}

// EmitFailure projects a failure into a record and delivers it.
func (l *Logger) EmitFailure(f domain.Failure) {
	l.EmitRecord(domain.RecordFromFailure(f))
}

func (l *Logger) deliver(rec domain.LogRecord, sinks []sink.Sink) {
	for _, s := range sinks {
		l.writeOne(s, rec)
	}
}

// writeOne contains a single sink write, converting panics and errors
// into diagnostics instead of letting them reach the caller.
func (l *Logger) writeOne(s sink.Sink, rec domain.LogRecord) {
	defer func() {
		if r := recover(); r != nil {
			metrics.SinkErrorsTotal.WithLabelValues(s.Name()).Inc()
			l.diag.Debug("sink panicked", "sink", s.Name(), "panic", fmt.Sprint(r))
		}
	}()
	if err := s.Write(rec); err != nil {
		metrics.SinkErrorsTotal.WithLabelValues(s.Name()).Inc()
		l.diag.Debug("sink write failed", "sink", s.Name(), "error", err)
	}
}

// Flush flushes every sink, reporting the first error encountered while
// still flushing the rest.
func (l *Logger) Flush() error {
	l.mu.RLock()
	sinks := l.sinks
	l.mu.RUnlock()

	var first error
	for _, s := range sinks {
		if err := s.Flush(); err != nil {
			metrics.SinkErrorsTotal.WithLabelValues(s.Name()).Inc()
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Close closes every sink, reporting the first error encountered.
func (l *Logger) Close() error {
	l.mu.Lock()
	sinks := l.sinks
	l.sinks = nil
	l.mu.Unlock()

	var first error
	for _, s := range sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
