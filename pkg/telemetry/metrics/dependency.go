package metrics

import (
	"time"

	"veridian-hq/cerberus/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DependencyMetrics tracks wrapped dependency calls.
//
// Metrics:
//   - veridian_cerberus_dependency_calls_total: by dependency and outcome
//   - veridian_cerberus_dependency_call_duration_seconds: by dependency
//   - veridian_cerberus_dependency_retries_total: by dependency
//
// The outcome label is a closed five-member set; anything else is dropped.
type DependencyMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
}

// NewDependencyMetrics creates and registers the dependency call metrics.
func NewDependencyMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DependencyMetrics {
	dm := &DependencyMetrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dependency_calls_total",
				Help:      "Total wrapped dependency calls by outcome",
			},
			[]string{"dependency", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dependency_call_duration_seconds",
				Help:      "Duration of wrapped dependency calls",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
			[]string{"dependency"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dependency_retries_total",
				Help:      "Total retry attempts by dependency",
			},
			[]string{"dependency"},
		),
	}

	registry.MustRegister(dm.calls, dm.duration, dm.retries)
	return dm
}

// RecordCall records one call outcome and its duration. Outcomes outside the
// closed set are dropped silently, duration included.
func (dm *DependencyMetrics) RecordCall(dependency, outcome string, duration time.Duration) {
	if dm == nil {
		return
	}
	if !member(validOutcomes, outcome) {
		return
	}
	dm.calls.WithLabelValues(dependency, outcome).Inc()
	dm.duration.WithLabelValues(dependency).Observe(duration.Seconds())
}

// RecordRetry records one retry attempt.
func (dm *DependencyMetrics) RecordRetry(dependency string) {
	if dm == nil {
		return
	}
	dm.retries.WithLabelValues(dependency).Inc()
}
