package metrics

import (
	"veridian-hq/cerberus/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// GuardMetrics tracks the orchestrator itself.
//
// Metrics:
//   - veridian_cerberus_guard_failopen_total: unhandled guard errors that
//     resulted in pass-through, by layer
//   - veridian_cerberus_guard_denials_total: denials by reason
type GuardMetrics struct {
	failOpen *prometheus.CounterVec
	denials  *prometheus.CounterVec
}

var validLayers = map[string]struct{}{
	"killswitch": {},
	"ratelimit":  {},
	"breaker":    {},
	"decision":   {},
	"drift":      {},
	"chain":      {},
}

var validDenyReasons = map[string]struct{}{
	"RATE_LIMITED":   {},
	"KILL_SWITCHED":  {},
	"CIRCUIT_OPEN":   {},
	"INTERNAL_ERROR": {},
	"GUARD_BLOCK":    {},
}

// NewGuardMetrics creates and registers the orchestrator metrics.
func NewGuardMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GuardMetrics {
	gm := &GuardMetrics{
		failOpen: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "guard_failopen_total",
				Help:      "Guard layer errors that resulted in fail-open pass-through",
			},
			[]string{"layer"},
		),
		denials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "guard_denials_total",
				Help:      "Requests denied by the guard chain, by reason",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(gm.failOpen, gm.denials)
	return gm
}

// RecordFailOpen records a fail-open event in the named layer. Unknown layer
// names are dropped silently.
func (gm *GuardMetrics) RecordFailOpen(layer string) {
	if gm == nil {
		return
	}
	if !member(validLayers, layer) {
		return
	}
	gm.failOpen.WithLabelValues(layer).Inc()
}

// RecordDenial records a chain denial by reason. Unknown reasons are dropped.
func (gm *GuardMetrics) RecordDenial(reason string) {
	if gm == nil {
		return
	}
	if !member(validDenyReasons, reason) {
		return
	}
	gm.denials.WithLabelValues(reason).Inc()
}
