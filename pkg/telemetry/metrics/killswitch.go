package metrics

import (
	"veridian-hq/cerberus/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// KillSwitchMetrics tracks kill switch activity.
//
// Metrics:
//   - veridian_cerberus_killswitch_changes_total: switch flips by switch and new state
//   - veridian_cerberus_killswitch_denials_total: requests denied by a switch
//   - veridian_cerberus_killswitch_errors_total: internal errors by fallback path
type KillSwitchMetrics struct {
	changes *prometheus.CounterVec
	denials *prometheus.CounterVec
	errors  *prometheus.CounterVec
}

// NewKillSwitchMetrics creates and registers the kill switch metrics.
func NewKillSwitchMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *KillSwitchMetrics {
	km := &KillSwitchMetrics{
		changes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "killswitch_changes_total",
				Help:      "Total kill switch state changes",
			},
			[]string{"switch", "enabled"},
		),
		denials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "killswitch_denials_total",
				Help:      "Total requests denied by a kill switch",
			},
			[]string{"switch"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "killswitch_errors_total",
				Help:      "Internal kill switch errors by fallback path",
			},
			[]string{"fallback"},
		),
	}

	registry.MustRegister(km.changes, km.denials, km.errors)
	return km
}

// RecordChange records a switch flip. The switch label is bounded because
// switch names come from configuration and the tenant switch prefix.
func (km *KillSwitchMetrics) RecordChange(name string, enabled bool) {
	if km == nil {
		return
	}
	label := "false"
	if enabled {
		label = "true"
	}
	km.changes.WithLabelValues(name, label).Inc()
}

// RecordDenial records a request denied by the named switch.
func (km *KillSwitchMetrics) RecordDenial(name string) {
	if km == nil {
		return
	}
	km.denials.WithLabelValues(name).Inc()
}

// RecordError records an internal evaluation error. fallback is "open" when
// the request was allowed through and "closed" when it was denied.
func (km *KillSwitchMetrics) RecordError(fallback string) {
	if km == nil {
		return
	}
	if fallback != "open" && fallback != "closed" {
		return
	}
	km.errors.WithLabelValues(fallback).Inc()
}
