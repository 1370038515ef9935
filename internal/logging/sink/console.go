package sink

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"

	"github.com/vietddude/faultline/internal/core/domain"
)

// levelCritical renders above slog's error level.
const levelCritical = slog.LevelError + 4

// ConsoleSink writes records synchronously through a tint handler. It has
// no persistence guarantee and is intended for development.
type ConsoleSink struct {
	log *slog.Logger
}

// NewConsoleSink creates a console sink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.RFC3339,
	})
	return &ConsoleSink{log: slog.New(handler)}
}

func (s *ConsoleSink) Name() string { return "console" }

// Write renders the record immediately.
func (s *ConsoleSink) Write(rec domain.LogRecord) error {
	attrs := make([]any, 0, len(rec.Context)*2)
	for _, a := range rec.Context {
		attrs = append(attrs, a.Key, a.Value)
	}
	s.log.Log(context.Background(), slogLevel(rec.Level), rec.Message, attrs...)
	return nil
}

// Flush is a no-op; writes are synchronous.
func (s *ConsoleSink) Flush() error { return nil }

// Close is a no-op.
func (s *ConsoleSink) Close() error { return nil }

func slogLevel(l domain.Level) slog.Level {
	switch l {
	case domain.LevelDebug:
		return slog.LevelDebug
	case domain.LevelInfo:
		return slog.LevelInfo
	case domain.LevelWarn:
		return slog.LevelWarn
	case domain.LevelError:
		return slog.LevelError
	case domain.LevelCritical:
		return levelCritical
	default:
		return slog.LevelInfo
	}
}
