// Package intercept is the single seam every uncaught failure in the
// process passes through, whatever execution context it started in.
package intercept

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/vietddude/faultline/internal/core/domain"
	"github.com/vietddude/faultline/internal/logging"
	"github.com/vietddude/faultline/internal/metrics"
	"github.com/vietddude/faultline/internal/recovery"
	"github.com/vietddude/faultline/internal/report"
)

// Outcome is the terminal state of one failure's pass through the
// pipeline: Captured → Normalized → Logged → RecoveryAttempted →
// Reported → (UserNotified | Suppressed).
type Outcome string

const (
	// OutcomeRecovered means a strategy resolved the failure; nothing
	// was surfaced to the user.
	OutcomeRecovered Outcome = "recovered"

	// OutcomeNotified means the failure was surfaced to the user.
	OutcomeNotified Outcome = "notified"

	// OutcomeSuppressed means the notification was rate-limited away;
	// the failure is still logged (and reported when severity
	// qualifies).
	OutcomeSuppressed Outcome = "suppressed"

	// OutcomeHandled means no user surface was warranted (info/low
	// severity, or no notifier installed).
	OutcomeHandled Outcome = "handled"
)

// Publisher is the analytics intake. Publish must never block.
type Publisher interface {
	Publish(f domain.Failure)
}

// Interceptor normalizes raw failures and drives logging, recovery,
// reporting, and notification. Process is reentrant: every capture point
// funnels into it and it may run concurrently from many goroutines.
type Interceptor struct {
	log         *logging.Logger
	engine      *recovery.Engine
	reporter    report.Reporter
	analytics   Publisher
	notifier    Notifier
	snapshotter Snapshotter
	limiter     *rate.Limiter
	matchers    []Matcher
}

// New creates an interceptor. engine, reporter, analytics, notifier and
// snapshotter may each be nil; the corresponding stage is skipped.
func New(log *logging.Logger, engine *recovery.Engine, reporter report.Reporter,
	analytics Publisher, notifier Notifier, snapshotter Snapshotter, notify NotifyConfig) *Interceptor {
	return &Interceptor{
		log:         log,
		engine:      engine,
		reporter:    reporter,
		analytics:   analytics,
		notifier:    notifier,
		snapshotter: snapshotter,
		limiter:     newNotifyLimiter(notify),
	}
}

// RegisterMatcher appends a custom error classifier consulted before the
// built-in rules. Call during startup, before failures flow.
func (i *Interceptor) RegisterMatcher(m Matcher) {
	i.matchers = append(i.matchers, m)
}

// Handle captures an error from a synchronous call path.
func (i *Interceptor) Handle(ctx context.Context, err error) Outcome {
	if err == nil {
		return OutcomeHandled
	}
	return i.Process(ctx, err)
}

// Wrap runs fn and feeds any error or panic through the pipeline. The
// original error is returned so callers keep their own control flow.
func (i *Interceptor) Wrap(ctx context.Context, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			f := i.normalizePanic(r)
			i.Process(ctx, f)
			err = f
		}
	}()
	if err = fn(); err != nil {
		i.Process(ctx, err)
	}
	return err
}

// Go runs fn on a new goroutine behind an error boundary, the
// background-task capture point.
func (i *Interceptor) Go(ctx context.Context, fn func(ctx context.Context) error) {
	go func() {
		defer i.RecoverPanic(ctx)
		if err := fn(ctx); err != nil {
			i.Process(ctx, err)
		}
	}()
}

// RecoverPanic is the framework-callback capture point, installed with
// defer at the top of a callback.
func (i *Interceptor) RecoverPanic(ctx context.Context) {
	if r := recover(); r != nil {
		i.Process(ctx, i.normalizePanic(r))
	}
}

func (i *Interceptor) normalizePanic(r any) domain.Failure {
	if f, ok := r.(domain.Failure); ok {
		return f
	}
	f := classify(r, i.matchers)
	rec := f.Record()
	if rec.Kind == domain.KindPlatform && rec.Code == domain.CodeUnknown {
		// A panic is process-threatening regardless of the value thrown.
		return domain.NewFailureWithSeverity(domain.KindPlatform, domain.CodePanic,
			rec.Message, domain.SeverityCritical, rec.Cause).WithTrace(rec.Trace)
	}
	return f
}

// Process drives one failure through the full state machine.
func (i *Interceptor) Process(ctx context.Context, raw any) Outcome {
	// Captured → Normalized.
	f := classify(raw, i.matchers)
	rec := f.Record()

	// Normalized → Logged: unconditional.
	i.log.EmitFailure(f)
	metrics.FailuresTotal.WithLabelValues(string(rec.Kind), rec.Severity.String()).Inc()

	if i.analytics != nil {
		i.analytics.Publish(f)
	}

	// Logged → RecoveryAttempted: skipped for info/low, where no
	// recovery is meaningful.
	var res recovery.Result
	if i.engine != nil && rec.Severity.AtLeast(domain.SeverityMedium) {
		res = i.engine.Recover(ctx, f)
	}

	// RecoveryAttempted → Reported: high and critical only.
	if i.reporter != nil && rec.Severity.AtLeast(domain.SeverityHigh) {
		if err := i.reporter.Report(ctx, f); err != nil {
			i.log.Emit(domain.LevelWarn, "crash report dropped", domain.Ctx(
				"failure_id", rec.ID, "error", err.Error()))
		}
	}

	// State preservation precedes any notification for critical
	// failures, so a restart can resume.
	if i.snapshotter != nil && rec.Severity == domain.SeverityCritical {
		snapCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := i.snapshotter.Snapshot(snapCtx); err != nil {
			i.log.Emit(domain.LevelWarn, "state snapshot failed", domain.Ctx(
				"failure_id", rec.ID, "error", err.Error()))
		}
		cancel()
	}

	if res.Success {
		return OutcomeRecovered
	}

	// Reported → UserNotified | Suppressed.
	if i.notifier == nil || !rec.Severity.AtLeast(domain.SeverityMedium) {
		return OutcomeHandled
	}
	if !i.limiter.Allow() {
		metrics.NotificationsTotal.WithLabelValues("suppressed").Inc()
		return OutcomeSuppressed
	}
	i.notifier.Notify(f)
	metrics.NotificationsTotal.WithLabelValues("notified").Inc()
	return OutcomeNotified
}
