package metrics

import (
	"veridian-hq/cerberus/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DriftMetrics tracks drift guard evaluations.
//
// The single counter is labelled by mode (SHADOW, ENFORCE) and outcome
// (drift, no_drift, provider_error), a bounded 2x3 cardinality.
type DriftMetrics struct {
	evaluations *prometheus.CounterVec
	blocks      *prometheus.CounterVec
}

// NewDriftMetrics creates and registers the drift guard metrics.
func NewDriftMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DriftMetrics {
	dm := &DriftMetrics{
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "drift_evaluations_total",
				Help:      "Total drift evaluations by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		blocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "drift_blocks_total",
				Help:      "Total requests blocked by the drift guard",
			},
			[]string{"mode"},
		),
	}

	registry.MustRegister(dm.evaluations, dm.blocks)
	return dm
}

// RecordEvaluation records one drift evaluation. Values outside the closed
// mode and outcome sets are dropped silently.
func (dm *DriftMetrics) RecordEvaluation(mode, outcome string) {
	if dm == nil {
		return
	}
	if !member(validDriftModes, mode) || !member(validDriftOutcomes, outcome) {
		return
	}
	dm.evaluations.WithLabelValues(mode, outcome).Inc()
}

// RecordBlock records an enforced drift block.
func (dm *DriftMetrics) RecordBlock(mode string) {
	if dm == nil {
		return
	}
	if !member(validDriftModes, mode) {
		return
	}
	dm.blocks.WithLabelValues(mode).Inc()
}
