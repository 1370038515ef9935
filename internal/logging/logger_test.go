package logging

import (
	"errors"
	"sync"
	"testing"

	"github.com/vietddude/faultline/internal/core/domain"
)

type memorySink struct {
	mu      sync.Mutex
	name    string
	records []domain.LogRecord
	writeEr error
	panics  bool
}

func (s *memorySink) Name() string { return s.name }

func (s *memorySink) Write(rec domain.LogRecord) error {
	if s.panics {
		panic("sink exploded")
	}
	if s.writeEr != nil {
		return s.writeEr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *memorySink) Flush() error { return nil }
func (s *memorySink) Close() error { return nil }

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func TestLogger_MinLevelFilters(t *testing.T) {
	mem := &memorySink{name: "mem"}
	log := New(domain.LevelInfo, mem)

	log.Emit(domain.LevelDebug, "hidden", nil)
	log.Emit(domain.LevelInfo, "shown", nil)
	log.Emit(domain.LevelError, "also shown", nil)

	if got := mem.count(); got != 2 {
		t.Errorf("expected 2 records past the filter, got %d", got)
	}
}

func TestLogger_GlobalContextMerged(t *testing.T) {
	mem := &memorySink{name: "mem"}
	log := New(domain.LevelDebug, mem)
	log.AddGlobal("environment", "test")
	log.AddGlobal("app_version", "1.2.3")

	log.Emit(domain.LevelInfo, "hello", domain.Ctx("request_id", "r-7"))

	if mem.count() != 1 {
		t.Fatalf("expected 1 record, got %d", mem.count())
	}
	ctx := mem.records[0].Context.Map()
	if ctx["environment"] != "test" || ctx["app_version"] != "1.2.3" {
		t.Errorf("global context missing: %v", ctx)
	}
	if ctx["request_id"] != "r-7" {
		t.Errorf("call context missing: %v", ctx)
	}
}

func TestLogger_SinkFailureIsolated(t *testing.T) {
	broken := &memorySink{name: "broken", writeEr: errors.New("disk full")}
	panicky := &memorySink{name: "panicky", panics: true}
	healthy := &memorySink{name: "healthy"}
	log := New(domain.LevelDebug, broken, panicky, healthy)

	// Must not panic and must still deliver to the healthy sink.
	log.Emit(domain.LevelError, "important", nil)

	if got := healthy.count(); got != 1 {
		t.Errorf("healthy sink should have received the record, got %d", got)
	}
}

func TestLogger_NoCoalescing(t *testing.T) {
	mem := &memorySink{name: "mem"}
	log := New(domain.LevelDebug, mem)

	rec := domain.NewRecord(domain.LevelInfo, "same", domain.Ctx("k", "v"))
	log.EmitRecord(rec)
	log.EmitRecord(rec)

	if got := mem.count(); got != 2 {
		t.Errorf("expected 2 stored entries for the same record, got %d", got)
	}
}

func TestLogger_EmitFailureLevelMapping(t *testing.T) {
	mem := &memorySink{name: "mem"}
	log := New(domain.LevelDebug, mem)

	log.EmitFailure(domain.NewDataFailure(domain.CodeCorruption, "bad page", "events", "", nil))

	if mem.count() != 1 {
		t.Fatalf("expected 1 record, got %d", mem.count())
	}
	rec := mem.records[0]
	if rec.Level != domain.LevelCritical {
		t.Errorf("critical failure should log at critical, got %v", rec.Level)
	}
	ctx := rec.Context.Map()
	if ctx["kind"] != "data" || ctx["code"] != domain.CodeCorruption {
		t.Errorf("failure attributes missing: %v", ctx)
	}
}
