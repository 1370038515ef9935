package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/faultline/internal/core/domain"
)

// newIdleRemoteSink builds a sink without the background flush goroutine
// so tests drive flushes deterministically.
func newIdleRemoteSink(cfg RemoteConfig) *RemoteSink {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxBuffer <= 0 {
		cfg.MaxBuffer = 100
	}
	s := &RemoteSink{
		cfg:     cfg,
		flushCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	s.post = func(ctx context.Context, payload []byte) error { return nil }
	return s
}

func record(i int) domain.LogRecord {
	return domain.NewRecord(domain.LevelInfo, fmt.Sprintf("record %d", i), nil)
}

func TestRemoteSink_FlushSendsBatch(t *testing.T) {
	var mu sync.Mutex
	var batches [][]map[string]any

	s := newIdleRemoteSink(RemoteConfig{BatchSize: 5, MaxBuffer: 100, SourceTag: "test"})
	s.post = func(ctx context.Context, payload []byte) error {
		var body struct {
			Records []map[string]any `json:"records"`
			Source  string           `json:"source"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		if body.Source != "test" {
			t.Errorf("expected source tag test, got %q", body.Source)
		}
		mu.Lock()
		batches = append(batches, body.Records)
		mu.Unlock()
		return nil
	}

	for i := 0; i < 12; i++ {
		_ = s.Write(record(i))
	}
	if err := s.flush(context.Background()); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches (5+5+2), got %d", len(batches))
	}
	if len(batches[0]) != 5 || len(batches[2]) != 2 {
		t.Errorf("unexpected batch sizes: %d, %d, %d",
			len(batches[0]), len(batches[1]), len(batches[2]))
	}
	// Submission order preserved within the sink.
	if batches[0][0]["message"] != "record 0" || batches[2][1]["message"] != "record 11" {
		t.Error("batch ordering not preserved")
	}
}

func TestRemoteSink_FailedBatchRequeuedAtFront(t *testing.T) {
	s := newIdleRemoteSink(RemoteConfig{BatchSize: 5, MaxBuffer: 100})

	calls := 0
	s.post = func(ctx context.Context, payload []byte) error {
		calls++
		return errors.New("backend down")
	}

	for i := 0; i < 7; i++ {
		_ = s.Write(record(i))
	}
	if err := s.flush(context.Background()); err == nil {
		t.Fatal("expected flush error")
	}
	if calls != 1 {
		t.Errorf("expected flush to stop after first failed batch, got %d calls", calls)
	}
	if !s.Degraded() {
		t.Error("sink should be degraded after failed delivery")
	}

	s.mu.Lock()
	if len(s.buf) != 7 {
		t.Errorf("expected all 7 records still buffered, got %d", len(s.buf))
	}
	if s.buf[0].Message != "record 0" {
		t.Errorf("failed batch not returned to front: first is %q", s.buf[0].Message)
	}
	s.mu.Unlock()

	// Next successful flush clears the degraded flag and drains.
	s.post = func(ctx context.Context, payload []byte) error { return nil }
	if err := s.flush(context.Background()); err != nil {
		t.Fatalf("second flush failed: %v", err)
	}
	if s.Degraded() {
		t.Error("degraded flag should clear on successful flush")
	}
}

func TestRemoteSink_BufferBoundDropsOldest(t *testing.T) {
	s := newIdleRemoteSink(RemoteConfig{BatchSize: 100, MaxBuffer: 10})

	for i := 0; i < 25; i++ {
		_ = s.Write(record(i))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) != 10 {
		t.Fatalf("expected buffer capped at 10, got %d", len(s.buf))
	}
	if s.buf[0].Message != "record 15" {
		t.Errorf("expected oldest records dropped, first is %q", s.buf[0].Message)
	}
}

func TestRemoteSink_CriticalTriggersImmediateFlush(t *testing.T) {
	s := newIdleRemoteSink(RemoteConfig{BatchSize: 100, MaxBuffer: 100})

	_ = s.Write(record(0))
	select {
	case <-s.flushCh:
		t.Fatal("info record below batch size should not trigger a flush")
	default:
	}

	_ = s.Write(domain.NewRecord(domain.LevelCritical, "fatal", nil))
	select {
	case <-s.flushCh:
	default:
		t.Fatal("critical record should trigger an immediate flush signal")
	}
}

func TestRemoteSink_LiveFlushLoop(t *testing.T) {
	var mu sync.Mutex
	delivered := 0

	s := NewRemoteSink(RemoteConfig{
		URL:           "http://localhost:0/ingest",
		BatchSize:     3,
		BatchInterval: time.Hour, // size threshold drives this test
		MaxBuffer:     100,
	})
	s.post = func(ctx context.Context, payload []byte) error {
		var body struct {
			Records []map[string]any `json:"records"`
		}
		_ = json.Unmarshal(payload, &body)
		mu.Lock()
		delivered += len(body.Records)
		mu.Unlock()
		return nil
	}

	for i := 0; i < 3; i++ {
		_ = s.Write(record(i))
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := delivered
		mu.Unlock()
		if n == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 delivered, got %d", n)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
