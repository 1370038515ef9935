package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FailuresTotal counts failures processed by the interceptor.
	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_failures_total",
			Help: "Total number of failures processed",
		},
		[]string{"kind", "severity"},
	)

	// RecoveriesTotal counts recovery strategy executions by outcome.
	RecoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_recoveries_total",
			Help: "Total number of recovery strategy executions",
		},
		[]string{"strategy", "outcome"},
	)

	// SinkErrorsTotal counts write/flush errors per sink.
	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_sink_errors_total",
			Help: "Total number of sink write or flush errors",
		},
		[]string{"sink"},
	)

	// RecordsDroppedTotal counts records dropped at a bounded buffer.
	RecordsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_records_dropped_total",
			Help: "Total number of log records dropped by bounded buffers",
		},
		[]string{"sink"},
	)

	// FlushLatency tracks remote batch flush latency.
	FlushLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "faultline_flush_latency_seconds",
			Help:    "Remote sink batch flush latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ReportsTotal counts crash reports by result.
	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_crash_reports_total",
			Help: "Total number of crash reporter calls",
		},
		[]string{"result"},
	)

	// NotificationsTotal counts user notifications by outcome.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_notifications_total",
			Help: "Total number of user notification decisions",
		},
		[]string{"outcome"},
	)

	// AnalyticsDroppedTotal counts failures dropped at the analytics intake.
	AnalyticsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "faultline_analytics_dropped_total",
			Help: "Total number of failures dropped by the analytics intake buffer",
		},
	)

	// SpikesDetectedTotal counts detected failure spikes.
	SpikesDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_spikes_detected_total",
			Help: "Total number of detected failure spikes",
		},
		[]string{"kind", "code"},
	)
)
