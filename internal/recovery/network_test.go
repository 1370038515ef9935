package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/faultline/internal/core/domain"
)

// fakeSleep records requested delays instead of waiting.
func fakeSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestNetworkStrategy_NeverRetries404(t *testing.T) {
	s := NewNetworkStrategy(nil, DefaultBackoff())

	calls := 0
	f := domain.NetworkFailureFromStatus("not found", 404, "/api/items/9", "GET", nil).
		WithOperation(func(ctx context.Context) error {
			calls++
			return nil
		})

	res := s.Recover(context.Background(), f)

	if res.Success {
		t.Error("404 must not be recovered by retry")
	}
	if calls != 0 {
		t.Errorf("operation must never be retried for 404, got %d calls", calls)
	}
}

func TestNetworkStrategy_Retries503WithBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		MaxAttempts:  4,
	}
	s := NewNetworkStrategy(nil, backoff)
	var delays []time.Duration
	s.sleep = fakeSleep(&delays)

	calls := 0
	f := domain.NetworkFailureFromStatus("upstream down", 503, "/api/sync", "POST", nil).
		WithOperation(func(ctx context.Context) error {
			calls++
			return errors.New("still down")
		})

	res := s.Recover(context.Background(), f)

	if res.Success {
		t.Error("expected exhausted retries")
	}
	if calls != 4 {
		t.Errorf("expected max 4 attempts, got %d", calls)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("expected %d delays, got %d", len(want), len(delays))
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d: expected %v, got %v", i, want[i], delays[i])
		}
	}
}

func TestNetworkStrategy_SucceedsMidway(t *testing.T) {
	s := NewNetworkStrategy(nil, &ExponentialBackoff{InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxAttempts: 5})
	var delays []time.Duration
	s.sleep = fakeSleep(&delays)

	calls := 0
	f := domain.NewNetworkFailure(domain.CodeTimeout, "timeout", 0, "/api", "GET", nil).
		WithOperation(func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("timeout")
			}
			return nil
		})

	res := s.Recover(context.Background(), f)

	if !res.Success {
		t.Fatalf("expected recovery, got %+v", res)
	}
	if calls != 3 {
		t.Errorf("expected success on third attempt, got %d calls", calls)
	}
	if res.Data["attempts"] != 3 {
		t.Errorf("expected attempts hint 3, got %v", res.Data["attempts"])
	}
}

type offlineChecker struct{}

func (offlineChecker) Online(ctx context.Context) bool { return false }

func TestNetworkStrategy_OfflineSkipsRetry(t *testing.T) {
	s := NewNetworkStrategy(offlineChecker{}, DefaultBackoff())

	calls := 0
	f := domain.NewNetworkFailure(domain.CodeConnection, "reset", 0, "/api", "GET", nil).
		WithOperation(func(ctx context.Context) error {
			calls++
			return nil
		})

	if res := s.Recover(context.Background(), f); res.Success {
		t.Error("offline device must not retry")
	}
	if calls != 0 {
		t.Errorf("operation must not run while offline, got %d calls", calls)
	}
}

func TestNetworkStrategy_NoOperationAttached(t *testing.T) {
	s := NewNetworkStrategy(nil, DefaultBackoff())
	f := domain.NewNetworkFailure(domain.CodeTimeout, "timeout", 0, "/api", "GET", nil)

	if res := s.Recover(context.Background(), f); res.Success {
		t.Error("failure without an operation cannot be recovered")
	}
}
