package domain

import (
	"fmt"
	"time"
)

// Level classifies log records.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string into a Level. Unknown strings map to info.
func ParseLevel(v string) Level {
	switch v {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "critical", "fatal":
		return LevelCritical
	default:
		return LevelInfo
	}
}

// LevelForSeverity maps a failure severity to the log level its record is
// emitted at.
func LevelForSeverity(s Severity) Level {
	switch s {
	case SeverityCritical:
		return LevelCritical
	case SeverityHigh:
		return LevelError
	case SeverityMedium:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// LogRecord is a serializable projection of a failure or an informational
// event. Records are immutable; sinks own any buffering of them.
type LogRecord struct {
	Level     Level
	Message   string
	Timestamp time.Time
	Context   Context
}

// NewRecord creates a log record stamped with the current time.
func NewRecord(level Level, message string, ctx Context) LogRecord {
	return LogRecord{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
		Context:   ctx,
	}
}

// RecordFromFailure projects a failure into a log record.
func RecordFromFailure(f Failure) LogRecord {
	rec := f.Record()
	ctx := Ctx(
		"failure_id", rec.ID,
		"kind", string(rec.Kind),
		"code", rec.Code,
		"severity", rec.Severity.String(),
	)
	if rec.Cause != nil {
		ctx = ctx.With("cause", rec.Cause.Error())
	}
	if rec.Trace != "" {
		ctx = ctx.With("trace", rec.Trace)
	}
	return LogRecord{
		Level:     LevelForSeverity(rec.Severity),
		Message:   rec.Message,
		Timestamp: rec.At,
		Context:   rec.Context.Merge(ctx),
	}
}

// ToMap serializes the record for sinks.
func (r LogRecord) ToMap() map[string]any {
	m := map[string]any{
		"level":     r.Level.String(),
		"message":   r.Message,
		"timestamp": r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if len(r.Context) > 0 {
		m["context"] = r.Context.Map()
	}
	return m
}

// RecordFromMap deserializes a record previously produced by ToMap.
func RecordFromMap(m map[string]any) (LogRecord, error) {
	level, ok := m["level"].(string)
	if !ok {
		return LogRecord{}, fmt.Errorf("record missing level")
	}
	message, ok := m["message"].(string)
	if !ok {
		return LogRecord{}, fmt.Errorf("record missing message")
	}
	ts, ok := m["timestamp"].(string)
	if !ok {
		return LogRecord{}, fmt.Errorf("record missing timestamp")
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return LogRecord{}, fmt.Errorf("invalid record timestamp: %w", err)
	}

	rec := LogRecord{
		Level:     ParseLevel(level),
		Message:   message,
		Timestamp: at,
	}
	if raw, ok := m["context"].(map[string]any); ok {
		for k, v := range raw {
			rec.Context = append(rec.Context, Attr{Key: k, Value: v})
		}
	}
	return rec, nil
}
