package config

import (
	"time"

	"github.com/vietddude/faultline/internal/analytics"
	redisclient "github.com/vietddude/faultline/internal/infra/redis"
	"github.com/vietddude/faultline/internal/infra/storage/postgres"
	"github.com/vietddude/faultline/internal/intercept"
	"github.com/vietddude/faultline/internal/logging/sink"
	"github.com/vietddude/faultline/internal/report"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig           `yaml:"server"`
	Logging   LoggingConfig          `yaml:"logging"`
	Recovery  RecoveryConfig         `yaml:"recovery"`
	Reporter  ReporterConfig         `yaml:"reporter"`
	Notify    intercept.NotifyConfig `yaml:"notify"`
	Snapshot  SnapshotConfig         `yaml:"snapshot"`
	Analytics analytics.Config       `yaml:"analytics"`
	Redis     redisclient.Config     `yaml:"redis"`
	Database  postgres.Config        `yaml:"database"`
}

// ServerConfig holds HTTP server settings for the ops endpoints.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds the minimum level and the sink fan-out.
type LoggingConfig struct {
	Level   string            `yaml:"level"` // debug, info, warn, error, critical
	Console ConsoleSinkConfig `yaml:"console"`
	File    FileSinkConfig    `yaml:"file"`
	Remote  RemoteSinkConfig  `yaml:"remote"`
}

// ConsoleSinkConfig toggles the terminal sink.
type ConsoleSinkConfig struct {
	Enabled bool `yaml:"enabled"`
}

// FileSinkConfig toggles the rotating file sink.
type FileSinkConfig struct {
	Enabled         bool `yaml:"enabled"`
	sink.FileConfig `yaml:",inline"`
}

// RemoteSinkConfig toggles the batched remote sink.
type RemoteSinkConfig struct {
	Enabled           bool `yaml:"enabled"`
	sink.RemoteConfig `yaml:",inline"`
}

// RecoveryConfig holds settings for the recovery engine.
type RecoveryConfig struct {
	Timeout time.Duration         `yaml:"timeout"` // per strategy attempt
	Network NetworkRecoveryConfig `yaml:"network"`
}

// NetworkRecoveryConfig holds the retry backoff for network failures.
type NetworkRecoveryConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	MaxAttempts  int           `yaml:"max_attempts"`
}

// ReporterConfig toggles and configures the crash reporter.
type ReporterConfig struct {
	Enabled       bool `yaml:"enabled"`
	report.Config `yaml:",inline"`
}

// SnapshotConfig holds settings for critical-state snapshots.
type SnapshotConfig struct {
	Path string `yaml:"path"`
}
