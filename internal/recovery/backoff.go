package recovery

import (
	"math"
	"time"
)

// ExponentialBackoff computes retry delays for the network strategy.
type ExponentialBackoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultBackoff returns sensible defaults: 1s, 2s, 4s (max 30s), 3 attempts.
func DefaultBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		MaxAttempts:  3,
	}
}

// GetDelay calculates delay: InitialDelay * 2^attempt, capped at MaxDelay.
func (b *ExponentialBackoff) GetDelay(attempt int) time.Duration {
	delay := float64(b.InitialDelay) * math.Pow(2, float64(attempt))
	if delay > float64(b.MaxDelay) {
		return b.MaxDelay
	}
	return time.Duration(delay)
}
