package metrics

import (
	"veridian-hq/cerberus/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the Prometheus registry and all guard metric families. It is
// created once at startup and handed to the guard components; each component
// records through its own family and never touches the registry directly.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Breaker tracks circuit breaker state and transitions.
	Breaker *BreakerMetrics

	// KillSwitch tracks switch flips, denials and internal errors.
	KillSwitch *KillSwitchMetrics

	// RateLimit tracks allow/reject decisions per endpoint.
	RateLimit *RateLimitMetrics

	// Dependency tracks wrapped call outcomes, durations and retries.
	Dependency *DependencyMetrics

	// Decision tracks decision layer evaluations and blocks.
	Decision *DecisionMetrics

	// Drift tracks drift guard evaluations and blocks.
	Drift *DriftMetrics

	// Guard tracks orchestrator fail-open events and denials.
	Guard *GuardMetrics
}

// NewCollector creates a collector with all metric families registered on the
// given registry. If registry is nil a fresh one is created, keeping guard
// metrics isolated from whatever else the process registers globally.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	return &Collector{
		config:     cfg,
		registry:   registry,
		Breaker:    NewBreakerMetrics(cfg, registry),
		KillSwitch: NewKillSwitchMetrics(cfg, registry),
		RateLimit:  NewRateLimitMetrics(cfg, registry),
		Dependency: NewDependencyMetrics(cfg, registry),
		Decision:   NewDecisionMetrics(cfg, registry),
		Drift:      NewDriftMetrics(cfg, registry),
		Guard:      NewGuardMetrics(cfg, registry),
	}
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
