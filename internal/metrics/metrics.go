// Package metrics exposes migration counters in Prometheus format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the migration metrics.
type Metrics struct {
	RecordsMigrated *prometheus.CounterVec
	TaskFailures    *prometheus.CounterVec
	PhaseFailures   *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	RunsTotal       *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsMigrated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sakila",
				Subsystem: "migration",
				Name:      "records_migrated_total",
				Help:      "Records successfully written to a destination",
			},
			[]string{"entity", "destination"},
		),

		TaskFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sakila",
				Subsystem: "migration",
				Name:      "task_failures_total",
				Help:      "Entity tasks that stopped on an error, by error code",
			},
			[]string{"entity", "code"},
		),

		PhaseFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sakila",
				Subsystem: "migration",
				Name:      "phase_failures_total",
				Help:      "Phases skipped because their connection could not be established",
			},
			[]string{"phase"},
		),

		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "sakila",
				Subsystem: "migration",
				Name:      "run_duration_seconds",
				Help:      "Wall time of a full migration run",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
			},
		),

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sakila",
				Subsystem: "migration",
				Name:      "runs_total",
				Help:      "Completed migration runs, by status (succeeded, partial, failed)",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(m.RecordsMigrated, m.TaskFailures, m.PhaseFailures, m.RunDuration, m.RunsTotal)
	return m
}

// RecordTask records the outcome of one entity task.
func (m *Metrics) RecordTask(entity, destination string, migrated int, code string) {
	if m == nil {
		return
	}
	m.RecordsMigrated.WithLabelValues(entity, destination).Add(float64(migrated))
	if code != "" {
		m.TaskFailures.WithLabelValues(entity, code).Inc()
	}
}

// RecordPhaseFailure records a phase whose connection failed.
func (m *Metrics) RecordPhaseFailure(phase string) {
	if m == nil {
		return
	}
	m.PhaseFailures.WithLabelValues(phase).Inc()
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
}
