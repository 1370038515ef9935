package control

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vietddude/faultline/internal/core/config"
	"github.com/vietddude/faultline/internal/core/domain"
	"github.com/vietddude/faultline/internal/intercept"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	return &config.AppConfig{
		Server:   config.ServerConfig{Port: 0},
		Logging:  config.LoggingConfig{Level: "debug"},
		Recovery: config.RecoveryConfig{Timeout: time.Second},
		Snapshot: config.SnapshotConfig{Path: filepath.Join(t.TempDir(), "state.json")},
	}
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(f domain.Failure) {
	n.messages = append(n.messages, f.UserMessage())
}

func TestPipeline_EndToEnd(t *testing.T) {
	notifier := &recordingNotifier{}
	p, err := NewPipeline(testConfig(t), Hooks{Notifier: notifier})
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	f := domain.NewNetworkFailure(domain.CodeTimeout, "feed fetch timed out", 0, "/v1/feed", "GET", nil)
	p.Interceptor().Process(ctx, f)

	// The analytics intake is asynchronous; poll for the pattern.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if pat, ok := p.Analytics().Pattern(domain.KindNetwork, domain.CodeTimeout); ok && pat.OccurrenceCount == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("pattern never recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestPipeline_NotifierReceivesUserMessage(t *testing.T) {
	notifier := &recordingNotifier{}
	p, err := NewPipeline(testConfig(t), Hooks{Notifier: notifier})
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	// Data corruption is critical and, with no redis cache wired, stays
	// unrecovered, so it must surface to the notifier.
	out := p.Interceptor().Process(context.Background(),
		domain.NewDataFailure(domain.CodeCorruption, "ledger page corrupt", "ledger", "", nil))

	if out != intercept.OutcomeNotified {
		t.Fatalf("expected notified outcome, got %v", out)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.messages))
	}
	if notifier.messages[0] == "ledger page corrupt" {
		t.Error("user message must not leak the internal message")
	}
}

func TestPipeline_InvalidFileSink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Logging.File.Enabled = true
	cfg.Logging.File.Path = filepath.Join(t.TempDir(), "missing", "deep", "app.log")

	// The file sink creates its parent directory, so even a nested path
	// should succeed.
	if _, err := NewPipeline(cfg, Hooks{}); err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
}
