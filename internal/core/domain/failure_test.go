package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSeverity_PureFunctionOfKindAndCode(t *testing.T) {
	a := NewNetworkFailure(CodeTimeout, "request timed out", 0, "/api", "GET", nil)
	b := NewNetworkFailure(CodeTimeout, "another timeout", 0, "/other", "POST", nil)

	if a.Record().Severity != b.Record().Severity {
		t.Errorf("same kind+code produced different severities: %v vs %v",
			a.Record().Severity, b.Record().Severity)
	}
	if a.Record().Severity != SeverityMedium {
		t.Errorf("expected medium for network timeout, got %v", a.Record().Severity)
	}

	if got := NewDataFailure(CodeCorruption, "bad page", "events", "", nil).Record().Severity; got != SeverityCritical {
		t.Errorf("expected critical for data corruption, got %v", got)
	}
	if got := NewValidationFailure("bad input", nil).Record().Severity; got != SeverityLow {
		t.Errorf("expected low for validation, got %v", got)
	}
}

func TestSeverity_ExplicitOverride(t *testing.T) {
	f := NewFailureWithSeverity(KindBusiness, CodeRuleViolation, "limit reached", SeverityHigh, nil)
	if f.Record().Severity != SeverityHigh {
		t.Errorf("expected overridden high, got %v", f.Record().Severity)
	}
}

func TestUserMessage_NeverContainsTrace(t *testing.T) {
	trace := "goroutine 1 [running]:\nmain.doWork(0xc0000ba000)"
	f := NewFailure(KindPlatform, CodePanic, "boom", errors.New("cause")).WithTrace(trace)

	msg := f.UserMessage()
	if msg == "" {
		t.Fatal("empty user message")
	}
	if strings.Contains(msg, "goroutine") || strings.Contains(msg, f.Record().ID) {
		t.Errorf("user message leaks internals: %q", msg)
	}

	// Same subtype/code always yields the same message.
	g := NewFailure(KindPlatform, CodePanic, "different boom", nil)
	if g.UserMessage() != msg {
		t.Errorf("user message not pure: %q vs %q", g.UserMessage(), msg)
	}
}

func TestNetworkFailure_Transient(t *testing.T) {
	cases := []struct {
		name   string
		f      *NetworkFailure
		expect bool
	}{
		{"timeout", NewNetworkFailure(CodeTimeout, "t", 0, "", "", nil), true},
		{"503", NetworkFailureFromStatus("s", 503, "/api", "GET", nil), true},
		{"404", NetworkFailureFromStatus("nf", 404, "/api", "GET", nil), false},
		{"408", NetworkFailureFromStatus("t", 408, "/api", "GET", nil), true},
		{"429", NetworkFailureFromStatus("rl", 429, "/api", "GET", nil), true},
		{"400", NetworkFailureFromStatus("bad", 400, "/api", "POST", nil), false},
	}
	for _, tc := range cases {
		if got := tc.f.Transient(); got != tc.expect {
			t.Errorf("%s: expected transient=%v, got %v", tc.name, tc.expect, got)
		}
	}
}

func TestFailure_ToMap(t *testing.T) {
	cause := errors.New("connection reset")
	f := NewNetworkFailure(CodeConnection, "fetch failed", 502, "/v1/items", "GET", cause).
		WithContext(Ctx("request_id", "r-1", "user_id", "u-9"))

	m := f.ToMap()
	if m["kind"] != "network" || m["code"] != CodeConnection {
		t.Errorf("unexpected kind/code: %v/%v", m["kind"], m["code"])
	}
	if m["status_code"] != 502 || m["endpoint"] != "/v1/items" {
		t.Errorf("missing network fields: %v", m)
	}
	if m["cause"] != "connection reset" {
		t.Errorf("missing cause: %v", m["cause"])
	}
	ctx, ok := m["context"].(map[string]any)
	if !ok || ctx["request_id"] != "r-1" {
		t.Errorf("missing context: %v", m["context"])
	}
}

func TestLogRecord_RoundTrip(t *testing.T) {
	rec := LogRecord{
		Level:     LevelWarn,
		Message:   "cache evicted",
		Timestamp: time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC),
		Context:   Ctx("entries", "42", "namespace", "thumbnails"),
	}

	back, err := RecordFromMap(rec.ToMap())
	if err != nil {
		t.Fatalf("RecordFromMap failed: %v", err)
	}

	if back.Level != rec.Level {
		t.Errorf("level mismatch: %v vs %v", back.Level, rec.Level)
	}
	if back.Message != rec.Message {
		t.Errorf("message mismatch: %q vs %q", back.Message, rec.Message)
	}
	if !back.Timestamp.Equal(rec.Timestamp) {
		t.Errorf("timestamp mismatch: %v vs %v", back.Timestamp, rec.Timestamp)
	}
	want := rec.Context.Map()
	got := back.Context.Map()
	if len(got) != len(want) {
		t.Fatalf("context size mismatch: %v vs %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("context[%s] = %v, want %v", k, got[k], v)
		}
	}
}

func TestErrorPattern_WindowedCount(t *testing.T) {
	p := NewErrorPattern(KindNetwork, CodeTimeout)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		p.RecordOccurrence(base.Add(time.Duration(i)*time.Minute), SeverityMedium, "", 100, 100)
	}

	if p.OccurrenceCount != 10 {
		t.Errorf("expected 10 occurrences, got %d", p.OccurrenceCount)
	}
	// Last 5 minutes of the series: minutes 5..9.
	if got := p.WindowedCount(base.Add(5 * time.Minute)); got != 5 {
		t.Errorf("expected 5 in window, got %d", got)
	}
	if !p.FirstSeen.Equal(base) || !p.LastSeen.Equal(base.Add(9*time.Minute)) {
		t.Errorf("first/last seen wrong: %v / %v", p.FirstSeen, p.LastSeen)
	}
}

func TestErrorPattern_BoundedWindowAndSubjects(t *testing.T) {
	p := NewErrorPattern(KindData, CodeConflict)
	base := time.Now()
	for i := 0; i < 50; i++ {
		p.RecordOccurrence(base.Add(time.Duration(i)*time.Second), SeverityMedium, "user-"+string(rune('a'+i%30)), 20, 10)
	}
	if len(p.Recent) != 20 {
		t.Errorf("expected recent window capped at 20, got %d", len(p.Recent))
	}
	if len(p.Subjects) > 10 {
		t.Errorf("expected subjects capped at 10, got %d", len(p.Subjects))
	}
}
