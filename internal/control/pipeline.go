// Package control assembles the full pipeline from configuration and
// manages its lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/vietddude/faultline/internal/analytics"
	"github.com/vietddude/faultline/internal/core/config"
	"github.com/vietddude/faultline/internal/core/domain"
	redisclient "github.com/vietddude/faultline/internal/infra/redis"
	"github.com/vietddude/faultline/internal/infra/storage"
	"github.com/vietddude/faultline/internal/infra/storage/memory"
	"github.com/vietddude/faultline/internal/infra/storage/postgres"
	"github.com/vietddude/faultline/internal/intercept"
	"github.com/vietddude/faultline/internal/logging"
	"github.com/vietddude/faultline/internal/logging/sink"
	"github.com/vietddude/faultline/internal/ops"
	"github.com/vietddude/faultline/internal/recovery"
	"github.com/vietddude/faultline/internal/report"

	"github.com/pressly/goose/v3"
)

// Hooks are the host-supplied integration points the pipeline cannot
// provide itself. Every field may be nil; the corresponding recovery or
// notification path is then skipped.
type Hooks struct {
	// Notifier surfaces user-facing messages.
	Notifier intercept.Notifier

	// Refresher renews credentials for auth recovery.
	Refresher recovery.TokenRefresher

	// Resyncer restores local state from the authoritative source
	// after a corruption wipe.
	Resyncer recovery.Resyncer
}

// Pipeline is the assembled application: logger, recovery engine,
// interceptor, analytics and the ops server, wired from one AppConfig.
type Pipeline struct {
	cfg         *config.AppConfig
	log         *logging.Logger
	remote      *sink.RemoteSink
	interceptor *intercept.Interceptor
	analytics   *analytics.Engine
	opsServer   *ops.Server
	monitor     *ops.Monitor
	db          *postgres.DB
	redisClient *redisclient.Client
	diag        *slog.Logger
}

// NewPipeline creates a Pipeline with all dependencies initialized.
func NewPipeline(cfg *config.AppConfig, hooks Hooks) (*Pipeline, error) {
	// 1. Initialize Logging
	log := logging.New(domain.ParseLevel(cfg.Logging.Level))
	var remote *sink.RemoteSink

	if cfg.Logging.Console.Enabled {
		log.AddSink(sink.NewConsoleSink(os.Stderr))
	}
	if cfg.Logging.File.Enabled {
		fileSink, err := sink.NewFileSink(cfg.Logging.File.FileConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to init file sink: %w", err)
		}
		log.AddSink(fileSink)
	}
	if cfg.Logging.Remote.Enabled {
		remote = sink.NewRemoteSink(cfg.Logging.Remote.RemoteConfig)
		log.AddSink(remote)
	}

	// 2. Initialize Storage
	var patternStore storage.PatternStore
	var db *postgres.DB
	var err error

	if cfg.Database.URL != "" {
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		// Run migrations
		// Note: Goose needs direct *sql.DB which sqlx.DB wraps
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		patternStore = postgres.NewPatternRepo(db)
		slog.Info("Using PostgreSQL pattern storage")
	} else {
		patternStore = memory.NewPatternStore()
		slog.Info("Using in-memory pattern storage")
	}

	// 3. Initialize Redis cache (optional)
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
	}

	// 4. Initialize Recovery Engine
	engine := recovery.NewEngine(cfg.Recovery.Timeout, log)
	engine.Register(domain.SubtypeNetwork, recovery.NewNetworkStrategy(
		&httpProbe{},
		&recovery.ExponentialBackoff{
			InitialDelay: cfg.Recovery.Network.InitialDelay,
			MaxDelay:     cfg.Recovery.Network.MaxDelay,
			MaxAttempts:  cfg.Recovery.Network.MaxAttempts,
		},
	))
	if hooks.Refresher != nil {
		engine.Register(domain.SubtypeAuth, recovery.NewAuthStrategy(hooks.Refresher))
	}
	if redisClient != nil {
		engine.Register(domain.SubtypeData, recovery.NewStorageStrategy(redisClient, hooks.Resyncer))
	}

	// 5. Initialize Crash Reporter
	var reporter report.Reporter
	if cfg.Reporter.Enabled && cfg.Reporter.URL != "" {
		reporter = report.NewHTTPReporter(cfg.Reporter.Config)
	}

	// 6. Initialize Snapshotter
	snapshotter := intercept.NewFileSnapshotter(cfg.Snapshot.Path)

	// 7. Initialize Analytics. Spike alerts flow to the logger and the
	// crash reporter directly, never back through the intake.
	analyticsEngine := analytics.NewEngine(cfg.Analytics, log, patternStore, func(f domain.Failure) {
		if reporter != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := reporter.Report(ctx, f); err != nil {
				log.Emit(domain.LevelWarn, "spike alert report dropped", domain.Ctx(
					"error", err.Error()))
			}
		}
	})

	// 8. Initialize Interceptor
	interceptor := intercept.New(log, engine, reporter, analyticsEngine, hooks.Notifier, snapshotter, cfg.Notify)

	// 9. Initialize Health Monitoring
	monitor := ops.NewMonitor()
	if db != nil {
		monitor.Register("database", true, db.Health)
	}
	if redisClient != nil {
		monitor.Register("redis", false, redisClient.Health)
	}
	if remote != nil {
		monitor.Register("remote_sink", false, func(ctx context.Context) error {
			if remote.Degraded() {
				return fmt.Errorf("log delivery failing")
			}
			return nil
		})
	}
	opsServer := ops.NewServer(monitor, cfg.Server.Port)

	return &Pipeline{
		cfg:         cfg,
		log:         log,
		remote:      remote,
		interceptor: interceptor,
		analytics:   analyticsEngine,
		opsServer:   opsServer,
		monitor:     monitor,
		db:          db,
		redisClient: redisClient,
		diag:        slog.Default(),
	}, nil
}

// Interceptor exposes the capture surface for the host application.
func (p *Pipeline) Interceptor() *intercept.Interceptor {
	return p.interceptor
}

// Logger exposes the structured logger for direct use.
func (p *Pipeline) Logger() *logging.Logger {
	return p.log
}

// Analytics exposes the analytics engine for report queries.
func (p *Pipeline) Analytics() *analytics.Engine {
	return p.analytics
}

// Start starts the pipeline and all its components.
func (p *Pipeline) Start(ctx context.Context) error {
	if err := p.analytics.Start(ctx); err != nil {
		return fmt.Errorf("failed to start analytics: %w", err)
	}

	go func() {
		if err := p.opsServer.Start(); err != nil && err != http.ErrServerClosed {
			p.diag.Error("Ops server failed", "error", err)
		}
	}()

	p.log.Emit(domain.LevelInfo, "pipeline started", domain.Ctx(
		"port", p.cfg.Server.Port))
	return nil
}

// Stop stops the pipeline, flushing buffered log records before exit.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.diag.Info("Stopping pipeline...")

	if err := p.analytics.Stop(ctx); err != nil {
		p.diag.Warn("Analytics stop failed", "error", err)
	}

	if p.redisClient != nil {
		if err := p.redisClient.Close(); err != nil {
			p.diag.Warn("Failed to close Redis", "error", err)
		}
	}

	if err := p.log.Close(); err != nil {
		p.diag.Warn("Log sink close failed", "error", err)
	}

	if p.db != nil {
		if err := p.db.Close(); err != nil {
			p.diag.Warn("Failed to close database", "error", err)
		}
	}

	return p.opsServer.Stop(ctx)
}

// httpProbe checks general connectivity with a HEAD request against a
// highly available endpoint.
type httpProbe struct{}

func (httpProbe) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, "https://www.google.com/generate_204", nil)
	if err != nil {
		return false
	}
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
