// Package analytics aggregates processed failures into per-type patterns,
// detects spikes, and produces periodic reports.
package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vietddude/faultline/internal/core/domain"
	"github.com/vietddude/faultline/internal/infra/storage"
	"github.com/vietddude/faultline/internal/logging"
	"github.com/vietddude/faultline/internal/metrics"
)

// Config holds analytics settings.
type Config struct {
	// SpikeThreshold is the windowed occurrence count above which one
	// kind+code is considered spiking.
	SpikeThreshold int `yaml:"spike_threshold"`

	// SpikeWindow is the trailing window for spike detection.
	SpikeWindow time.Duration `yaml:"spike_window"`

	// ReportSchedule is a cron expression for report generation.
	ReportSchedule string `yaml:"report_schedule"`

	// TopN bounds the most-frequent list in reports.
	TopN int `yaml:"top_n"`

	// IntakeBuffer sizes the subscription channel.
	IntakeBuffer int `yaml:"intake_buffer"`

	// MaxRecent bounds each pattern's sliding timestamp window.
	MaxRecent int `yaml:"max_recent"`

	// MaxSubjects bounds each pattern's distinct-subject set.
	MaxSubjects int `yaml:"max_subjects"`
}

func (c *Config) defaults() {
	if c.SpikeThreshold <= 0 {
		c.SpikeThreshold = 50
	}
	if c.SpikeWindow <= 0 {
		c.SpikeWindow = time.Hour
	}
	if c.ReportSchedule == "" {
		c.ReportSchedule = "@hourly"
	}
	if c.TopN <= 0 {
		c.TopN = 5
	}
	if c.IntakeBuffer <= 0 {
		c.IntakeBuffer = 256
	}
	if c.MaxRecent <= 0 {
		c.MaxRecent = c.SpikeThreshold * 2
	}
	if c.MaxSubjects <= 0 {
		c.MaxSubjects = 1000
	}
}

// AlertFunc receives the analytics_alert meta-failure emitted on a spike.
// It must not feed the failure back into analytics.
type AlertFunc func(f domain.Failure)

// Engine consumes every failure the interceptor processes, asynchronously
// and non-blocking relative to the main pipeline. All ErrorPattern state
// is owned by the single consumer goroutine; report generation takes a
// read lock only because the cron scheduler runs on its own goroutine.
type Engine struct {
	cfg   Config
	log   *logging.Logger
	store storage.PatternStore
	alert AlertFunc

	mu       sync.RWMutex
	patterns map[string]*domain.ErrorPattern

	in   chan domain.Failure
	cron *cron.Cron
	done chan struct{}
	wg   sync.WaitGroup

	// now is swappable in tests.
	now func() time.Time
}

// NewEngine creates an analytics engine. store may be nil (patterns stay
// in memory only); alert may be nil (spikes are only logged).
func NewEngine(cfg Config, log *logging.Logger, store storage.PatternStore, alert AlertFunc) *Engine {
	cfg.defaults()
	return &Engine{
		cfg:      cfg,
		log:      log,
		store:    store,
		alert:    alert,
		patterns: make(map[string]*domain.ErrorPattern),
		in:       make(chan domain.Failure, cfg.IntakeBuffer),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// Publish hands a failure to the engine without blocking. When the intake
// buffer is full the failure is dropped and counted.
func (e *Engine) Publish(f domain.Failure) {
	select {
	case e.in <- f:
	default:
		metrics.AnalyticsDroppedTotal.Inc()
	}
}

// Start launches the consumer goroutine and the report scheduler.
func (e *Engine) Start(ctx context.Context) error {
	e.wg.Add(1)
	go e.consumeLoop(ctx)

	e.cron = cron.New()
	_, err := e.cron.AddFunc(e.cfg.ReportSchedule, func() {
		rep := e.GenerateReport()
		e.log.Emit(domain.LevelInfo, "analytics report", domain.Ctx(
			"total_failures", rep.TotalFailures,
			"distinct_types", rep.DistinctTypes,
			"report", rep.String(),
		))
	})
	if err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", e.cfg.ReportSchedule, err)
	}
	e.cron.Start()
	return nil
}

// Stop drains nothing further and waits for the consumer to exit.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cron != nil {
		cronCtx := e.cron.Stop()
		select {
		case <-cronCtx.Done():
		case <-ctx.Done():
		}
	}
	close(e.done)
	e.wg.Wait()
	return nil
}

func (e *Engine) consumeLoop(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case <-ctx.Done():
			return
		case f := <-e.in:
			e.Consume(f)
		}
	}
}

// Consume folds one failure into its pattern and runs spike detection.
// Exported so tests (and synchronous callers) can drive the engine
// deterministically; production traffic arrives via Publish.
func (e *Engine) Consume(f domain.Failure) {
	rec := f.Record()
	// The engine's own alerts must not count as patterns, or one spike
	// would feed the next.
	if rec.Kind == domain.KindAnalyticsAlert {
		return
	}

	now := e.now()
	subject := ""
	if v, ok := rec.Context.Get("user_id"); ok {
		subject = fmt.Sprint(v)
	}

	e.mu.Lock()
	key := domain.PatternKey(rec.Kind, rec.Code)
	p, ok := e.patterns[key]
	if !ok {
		p = domain.NewErrorPattern(rec.Kind, rec.Code)
		e.patterns[key] = p
	}
	p.RecordOccurrence(now, rec.Severity, subject, e.cfg.MaxRecent, e.cfg.MaxSubjects)

	windowed := p.WindowedCount(now.Add(-e.cfg.SpikeWindow))
	spiked := false
	if windowed > e.cfg.SpikeThreshold {
		if !p.SpikeActive {
			p.SpikeActive = true
			spiked = true
		}
	} else {
		p.SpikeActive = false
	}
	snapshot := *p
	e.mu.Unlock()

	if spiked {
		e.raiseSpike(rec, windowed)
	}

	if e.store != nil {
		if err := e.store.Upsert(context.Background(), &snapshot); err != nil {
			e.log.Emit(domain.LevelDebug, "pattern store upsert failed", domain.Ctx(
				"kind", string(rec.Kind), "code", rec.Code, "error", err.Error()))
		}
	}
}

func (e *Engine) raiseSpike(rec *domain.Base, windowed int) {
	metrics.SpikesDetectedTotal.WithLabelValues(string(rec.Kind), rec.Code).Inc()
	e.log.Emit(domain.LevelCritical, "failure spike detected", domain.Ctx(
		"kind", string(rec.Kind),
		"code", rec.Code,
		"windowed_count", windowed,
		"threshold", e.cfg.SpikeThreshold,
	))
	if e.alert != nil {
		alert := domain.NewFailure(domain.KindAnalyticsAlert, domain.CodeSpike,
			fmt.Sprintf("spike: %s/%s occurred %d times within %s",
				rec.Kind, rec.Code, windowed, e.cfg.SpikeWindow),
			nil).
			WithContext(domain.Ctx(
				"spiking_kind", string(rec.Kind),
				"spiking_code", rec.Code,
				"windowed_count", windowed,
			))
		e.alert(alert)
	}
}

// Pattern returns a copy of the pattern for a kind+code, if present.
func (e *Engine) Pattern(kind domain.Kind, code string) (domain.ErrorPattern, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.patterns[domain.PatternKey(kind, code)]
	if !ok {
		return domain.ErrorPattern{}, false
	}
	return *p, true
}
