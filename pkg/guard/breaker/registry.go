package breaker

import (
	"log/slog"
	"sort"
	"sync"

	"veridian-hq/cerberus/pkg/config"
	"veridian-hq/cerberus/pkg/telemetry/metrics"
)

// Registry hands out circuit breakers by dependency name. Breakers are
// created lazily and memoized, so every caller that asks for "db_primary"
// shares the same instance and therefore the same window.
type Registry struct {
	cfg     config.BreakerConfig
	metrics *metrics.BreakerMetrics
	logger  *slog.Logger

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry creates an empty registry using cfg for every breaker.
func NewRegistry(cfg config.BreakerConfig, m *metrics.BreakerMetrics, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for the named dependency, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := New(name, r.cfg, r.metrics, r.logger)
	r.breakers[name] = b
	return b
}

// ResetAll forces every breaker closed. Operational recovery after a
// dependency incident has been resolved out of band.
func (r *Registry) ResetAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.breakers {
		b.Reset()
	}
	return len(r.breakers)
}

// Snapshots returns a snapshot per registered dependency, sorted by name for
// stable inspection output.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.Lock()
	breakers := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		breakers = append(breakers, b)
	}
	r.mu.Unlock()

	// Snapshot outside the registry lock; each breaker has its own mutex.
	snaps := make([]Snapshot, 0, len(breakers))
	for _, b := range breakers {
		snaps = append(snaps, b.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Dependency < snaps[j].Dependency })
	return snaps
}

// RefreshGauges re-emits the state gauge for every breaker. Called by the
// maintenance sweeper so gauges stay correct across lazy transitions that
// happened without traffic.
func (r *Registry) RefreshGauges() {
	for _, snap := range r.Snapshots() {
		r.metrics.SetState(snap.Dependency, snap.State, snap.StateValue)
	}
}
