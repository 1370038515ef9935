// Package ops provides health monitoring and the HTTP endpoints that
// expose it alongside Prometheus metrics.
package ops

import (
	"context"
	"sync"
	"time"
)

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ComponentHealth contains health details for one pipeline component.
type ComponentHealth struct {
	Component string       `json:"component"`
	Status    SystemStatus `json:"status"`
	Detail    string       `json:"detail,omitempty"`
}

// CheckFunc probes one component. A nil error means healthy; a non-nil
// error marks it degraded unless critical is true.
type CheckFunc func(ctx context.Context) error

type check struct {
	name     string
	critical bool
	fn       CheckFunc
}

// Monitor aggregates health status from registered pipeline components.
type Monitor struct {
	checks     []check
	lastCheck  time.Time
	lastReport map[string]ComponentHealth
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor.
func NewMonitor() *Monitor {
	return &Monitor{lastReport: make(map[string]ComponentHealth)}
}

// Register adds a component probe. Critical components take the whole
// system to StatusCritical when they fail; the rest only degrade it.
func (m *Monitor) Register(name string, critical bool, fn CheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, check{name: name, critical: critical, fn: fn})
}

// CheckHealth probes all registered components.
func (m *Monitor) CheckHealth(ctx context.Context) map[string]ComponentHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rate limit checks to avoid hammering backends on every scrape
	if time.Since(m.lastCheck) < 10*time.Second && len(m.lastReport) > 0 {
		return m.lastReport
	}

	report := make(map[string]ComponentHealth)
	for _, c := range m.checks {
		health := ComponentHealth{
			Component: c.name,
			Status:    StatusHealthy,
		}
		if err := c.fn(ctx); err != nil {
			health.Detail = err.Error()
			if c.critical {
				health.Status = StatusCritical
			} else {
				health.Status = StatusDegraded
			}
		}
		report[c.name] = health
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
