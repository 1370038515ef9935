package recovery

import (
	"context"
	"time"

	"github.com/vietddude/faultline/internal/core/domain"
)

// ConnectivityChecker probes whether the network is reachable at all
// before any retry is attempted.
type ConnectivityChecker interface {
	Online(ctx context.Context) bool
}

// NetworkStrategy retries the original failed operation with exponential
// backoff. It only acts on transient conditions: timeouts, connection
// errors, 5xx, 408 and 429. Other client errors are never retried.
type NetworkStrategy struct {
	check   ConnectivityChecker
	backoff *ExponentialBackoff

	// sleep waits between attempts; swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewNetworkStrategy creates the network recovery strategy. check may be
// nil, in which case connectivity is assumed.
func NewNetworkStrategy(check ConnectivityChecker, backoff *ExponentialBackoff) *NetworkStrategy {
	if backoff == nil {
		backoff = DefaultBackoff()
	}
	return &NetworkStrategy{
		check:   check,
		backoff: backoff,
		sleep:   sleepCtx,
	}
}

func (s *NetworkStrategy) Name() string { return "network_retry" }

// Recover retries the failure's attached operation. The failure itself is
// inert data; without an operation there is nothing to retry.
func (s *NetworkStrategy) Recover(ctx context.Context, f domain.Failure) Result {
	nf, ok := f.(*domain.NetworkFailure)
	if !ok {
		return Failed("not a network failure")
	}
	if !nf.Transient() {
		return Failed("permanent network failure, not retryable")
	}
	if nf.Operation == nil {
		return Failed("no retryable operation attached")
	}
	if s.check != nil && !s.check.Online(ctx) {
		return Failed("device is offline")
	}

	var lastErr error
	for attempt := 0; attempt < s.backoff.MaxAttempts; attempt++ {
		if err := s.sleep(ctx, s.backoff.GetDelay(attempt)); err != nil {
			return Failed("retry cancelled: " + err.Error())
		}
		if err := nf.Operation(ctx); err == nil {
			return ResolvedWith("operation succeeded on retry", map[string]any{
				"attempts": attempt + 1,
			})
		} else {
			lastErr = err
		}
	}
	return Failed("retries exhausted: " + lastErr.Error())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
