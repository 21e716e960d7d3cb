package metrics

import (
	"veridian-hq/cerberus/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// BreakerMetrics tracks circuit breaker state and transitions.
//
// Metrics:
//   - veridian_cerberus_breaker_state: 0=CLOSED, 1=HALF_OPEN, 2=OPEN per dependency
//   - veridian_cerberus_breaker_transitions_total: transitions by dependency, from, to
type BreakerMetrics struct {
	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
}

// NewBreakerMetrics creates and registers the circuit breaker metrics.
func NewBreakerMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BreakerMetrics {
	bm := &BreakerMetrics{
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "breaker_state",
				Help:      "Circuit breaker state per dependency (0=CLOSED, 1=HALF_OPEN, 2=OPEN)",
			},
			[]string{"dependency"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "breaker_transitions_total",
				Help:      "Total circuit breaker state transitions",
			},
			[]string{"dependency", "from", "to"},
		),
	}

	registry.MustRegister(bm.state, bm.transitions)
	return bm
}

// RecordTransition records a state transition and updates the state gauge.
// Unknown state names are dropped silently.
func (bm *BreakerMetrics) RecordTransition(dependency, from, to string, stateValue int) {
	if bm == nil {
		return
	}
	if !member(validBreakerStates, from) || !member(validBreakerStates, to) {
		return
	}
	bm.transitions.WithLabelValues(dependency, from, to).Inc()
	bm.state.WithLabelValues(dependency).Set(float64(stateValue))
}

// SetState refreshes the state gauge for a dependency without recording a
// transition. Used by the maintenance sweeper and at registration time.
func (bm *BreakerMetrics) SetState(dependency, state string, stateValue int) {
	if bm == nil {
		return
	}
	if !member(validBreakerStates, state) {
		return
	}
	bm.state.WithLabelValues(dependency).Set(float64(stateValue))
}
