package metrics

import (
	"veridian-hq/cerberus/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DecisionMetrics tracks the guard decision layer.
//
// Requests are counted twice, once labelled by effective mode and once by
// risk class. The two label sets are kept separate on purpose: existing
// dashboards consume each independently and a combined mode x risk series
// would break them.
//
// Metrics:
//   - veridian_cerberus_decision_requests_total: by effective mode
//   - veridian_cerberus_decision_requests_by_risk_total: by risk class
//   - veridian_cerberus_decision_blocks_total: by mode and block code
//   - veridian_cerberus_decision_would_block_total: shadow-mode would-be blocks by code
//   - veridian_cerberus_decision_unknown_tenants_total: unknown tenants, "_other" only
type DecisionMetrics struct {
	requests       *prometheus.CounterVec
	requestsByRisk *prometheus.CounterVec
	blocks         *prometheus.CounterVec
	wouldBlock     *prometheus.CounterVec
	unknownTenants prometheus.Counter
}

// NewDecisionMetrics creates and registers the decision layer metrics.
func NewDecisionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DecisionMetrics {
	dm := &DecisionMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decision_requests_total",
				Help:      "Total decision layer evaluations by effective mode",
			},
			[]string{"effective_mode"},
		),
		requestsByRisk: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decision_requests_by_risk_total",
				Help:      "Total decision layer evaluations by risk class",
			},
			[]string{"risk_class"},
		),
		blocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decision_blocks_total",
				Help:      "Total requests blocked by the decision layer",
			},
			[]string{"effective_mode", "code"},
		),
		wouldBlock: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decision_would_block_total",
				Help:      "Shadow-mode evaluations that would have blocked",
			},
			[]string{"code"},
		),
		unknownTenants: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decision_unknown_tenants_total",
				Help:      "Requests from tenants without an explicit mode, recorded as _other",
			},
		),
	}

	registry.MustRegister(dm.requests, dm.requestsByRisk, dm.blocks, dm.wouldBlock, dm.unknownTenants)
	return dm
}

// RecordRequest records one evaluation under both label sets. Unknown mode or
// risk values are dropped silently, each independently of the other.
func (dm *DecisionMetrics) RecordRequest(effectiveMode, riskClass string) {
	if dm == nil {
		return
	}
	if member(validModes, effectiveMode) {
		dm.requests.WithLabelValues(effectiveMode).Inc()
	}
	if member(validRiskClasses, riskClass) {
		dm.requestsByRisk.WithLabelValues(riskClass).Inc()
	}
}

// RecordBlock records an enforced block.
func (dm *DecisionMetrics) RecordBlock(effectiveMode, code string) {
	if dm == nil {
		return
	}
	if !member(validModes, effectiveMode) || !member(validBlockCodes, code) {
		return
	}
	dm.blocks.WithLabelValues(effectiveMode, code).Inc()
}

// RecordWouldBlock records a shadow-mode evaluation that would have blocked.
func (dm *DecisionMetrics) RecordWouldBlock(code string) {
	if dm == nil {
		return
	}
	if !member(validBlockCodes, code) {
		return
	}
	dm.wouldBlock.WithLabelValues(code).Inc()
}

// RecordUnknownTenant records a request from a tenant outside the configured
// mode maps. The tenant id itself is never used as a label.
func (dm *DecisionMetrics) RecordUnknownTenant() {
	if dm == nil {
		return
	}
	dm.unknownTenants.Inc()
}
