package metrics

import (
	"veridian-hq/cerberus/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RateLimitMetrics tracks rate limiter decisions.
//
// Metrics:
//   - veridian_cerberus_ratelimit_decisions_total: by endpoint and decision
//
// The endpoint label is safe because the limiter only ever sees normalized,
// bounded-cardinality endpoint labels.
type RateLimitMetrics struct {
	decisions *prometheus.CounterVec
}

// NewRateLimitMetrics creates and registers the rate limiter metrics.
func NewRateLimitMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RateLimitMetrics {
	rm := &RateLimitMetrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_decisions_total",
				Help:      "Total rate limit checks by endpoint and decision",
			},
			[]string{"endpoint", "decision"},
		),
	}

	registry.MustRegister(rm.decisions)
	return rm
}

// RecordDecision records one allow/reject decision. Unknown decision values
// are dropped silently.
func (rm *RateLimitMetrics) RecordDecision(endpoint, decision string) {
	if rm == nil {
		return
	}
	if !member(validDecisions, decision) {
		return
	}
	rm.decisions.WithLabelValues(endpoint, decision).Inc()
}
