package recovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vietddude/faultline/internal/core/domain"
	"github.com/vietddude/faultline/internal/logging"
	"github.com/vietddude/faultline/internal/metrics"
)

// Strategy attempts to resolve one category of failure. Strategies are
// stateless between invocations except for retry counters they manage
// internally.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string

	// Recover attempts to resolve the failure. Internal problems are
	// returned as a failed Result, not an error.
	Recover(ctx context.Context, f domain.Failure) Result
}

// Engine holds the subtype→strategies registry and runs a single ordered
// pass per request. Strategy lookup is an exact subtype match; there is no
// inheritance-style fallback.
type Engine struct {
	mu       sync.RWMutex
	registry map[string][]Strategy
	timeout  time.Duration
	log      *logging.Logger
}

// NewEngine creates an engine. timeout bounds each strategy invocation.
func NewEngine(timeout time.Duration, log *logging.Logger) *Engine {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{
		registry: make(map[string][]Strategy),
		timeout:  timeout,
		log:      log,
	}
}

// Register appends strategies for a failure subtype. Registration order is
// significant: the first strategy to succeed short-circuits the rest.
func (e *Engine) Register(subtype string, strategies ...Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry[subtype] = append(e.registry[subtype], strategies...)
}

// Recover runs the registered strategies for the failure's subtype in
// order until one succeeds or all are exhausted. The sequence is never
// retried as a whole.
func (e *Engine) Recover(ctx context.Context, f domain.Failure) Result {
	e.mu.RLock()
	strategies := e.registry[f.Subtype()]
	e.mu.RUnlock()

	if len(strategies) == 0 {
		return Failed(fmt.Sprintf("no recovery strategy for subtype %q", f.Subtype()))
	}

	var last Result
	for _, s := range strategies {
		res := e.attempt(ctx, s, f)
		outcome := "failed"
		if res.Success {
			outcome = "resolved"
		}
		metrics.RecoveriesTotal.WithLabelValues(s.Name(), outcome).Inc()

		if res.Success {
			return res
		}
		last = res
	}
	if last.Message == "" {
		last = Failed("all recovery strategies exhausted")
	}
	return last
}

// attempt time-boxes one strategy call and converts a strategy panic into
// a failed result logged at warn.
func (e *Engine) attempt(ctx context.Context, s Strategy, f domain.Failure) (res Result) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			if e.log != nil {
				e.log.Emit(domain.LevelWarn, "recovery strategy panicked",
					domain.Ctx("strategy", s.Name(), "subtype", f.Subtype(), "panic", fmt.Sprint(r)))
			}
			res = Failed(fmt.Sprintf("strategy %s panicked", s.Name()))
		}
	}()

	res = s.Recover(ctx, f)
	return res
}
