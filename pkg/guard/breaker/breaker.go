package breaker

import (
	"log/slog"
	"sync"
	"time"

	"veridian-hq/cerberus/pkg/config"
	"veridian-hq/cerberus/pkg/telemetry/metrics"
)

// State is a circuit breaker state. The numeric values double as the state
// gauge: 0=CLOSED, 1=HALF_OPEN, 2=OPEN.
type State int

const (
	// StateClosed admits every request.
	StateClosed State = 0

	// StateHalfOpen admits a bounded number of probe requests.
	StateHalfOpen State = 1

	// StateOpen admits nothing until OpenDuration elapses.
	StateOpen State = 2
)

// String returns the canonical state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateHalfOpen:
		return "HALF_OPEN"
	case StateOpen:
		return "OPEN"
	}
	return "UNKNOWN"
}

// event is one timestamped success or failure inside the rolling window.
type event struct {
	at      time.Time
	failure bool
}

// Snapshot is a point-in-time view of a breaker for inspection endpoints.
type Snapshot struct {
	// Dependency is the logical dependency name.
	Dependency string `json:"dependency"`

	// State is the state name: CLOSED, HALF_OPEN or OPEN.
	State string `json:"state"`

	// StateValue is the gauge encoding of State.
	StateValue int `json:"state_value"`

	// TotalCount is the number of events currently in the window.
	TotalCount int `json:"total_count"`

	// FailureCount is the number of failure events in the window.
	FailureCount int `json:"failure_count"`

	// FailurePct is the windowed failure percentage, 0 for an empty window.
	FailurePct float64 `json:"failure_pct"`
}

// Breaker is the circuit breaker for a single dependency. All methods are
// safe for concurrent use; a single mutex serializes mutation so concurrent
// requests against the same dependency observe consistent state.
type Breaker struct {
	name    string
	cfg     config.BreakerConfig
	metrics *metrics.BreakerMetrics
	logger  *slog.Logger

	mu             sync.Mutex
	state          State
	events         []event
	openedAt       time.Time
	probesIssued   int
	probeSuccesses int

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// New creates a closed breaker for the named dependency.
func New(name string, cfg config.BreakerConfig, m *metrics.BreakerMetrics, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Breaker{
		name:    name,
		cfg:     cfg,
		metrics: m,
		logger:  logger.With("component", "guard.breaker", "dependency", name),
		state:   StateClosed,
		now:     time.Now,
	}
	m.SetState(name, StateClosed.String(), int(StateClosed))
	return b
}

// Allow reports whether a request against the dependency may proceed.
// OPEN refuses; HALF_OPEN admits up to HalfOpenMaxRequests probes; CLOSED
// always admits. An internal error admits the request (fail-open).
func (b *Breaker) Allow() (allowed bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("breaker Allow panicked, failing open", "panic", r)
			allowed = true
		}
	}()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()

	switch b.state {
	case StateOpen:
		return false
	case StateHalfOpen:
		if b.probesIssued >= b.cfg.HalfOpenMaxRequests {
			return false
		}
		b.probesIssued++
		return true
	default:
		return true
	}
}

// RecordSuccess appends a success event. While HALF_OPEN it also counts
// toward closing the breaker; it never triggers the failure-rate check.
// Internal errors are swallowed.
func (b *Breaker) RecordSuccess() {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("breaker RecordSuccess panicked, ignoring", "panic", r)
		}
	}()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()

	b.events = append(b.events, event{at: b.now(), failure: false})
	b.pruneLocked()

	if b.state == StateHalfOpen {
		b.probeSuccesses++
		if b.probeSuccesses >= b.cfg.HalfOpenMaxRequests {
			b.transitionLocked(StateClosed)
			b.events = nil
		}
	}
}

// RecordFailure appends a failure event and runs the open check. While
// HALF_OPEN any failure reopens the breaker immediately. Internal errors are
// swallowed.
func (b *Breaker) RecordFailure() {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("breaker RecordFailure panicked, ignoring", "panic", r)
		}
	}()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()

	now := b.now()
	b.events = append(b.events, event{at: now, failure: true})
	b.pruneLocked()

	if b.state == StateHalfOpen {
		b.openedAt = now
		b.transitionLocked(StateOpen)
		return
	}

	if b.state != StateClosed {
		return
	}

	total := len(b.events)
	if total < b.cfg.MinSamples {
		return
	}
	failures := 0
	for _, e := range b.events {
		if e.failure {
			failures++
		}
	}
	failurePct := float64(failures) / float64(total) * 100
	if failurePct >= b.cfg.ErrorThresholdPct {
		b.openedAt = now
		b.transitionLocked(StateOpen)
		b.logger.Warn("circuit opened",
			"failure_pct", failurePct,
			"total_events", total,
			"threshold_pct", b.cfg.ErrorThresholdPct,
		)
	}
}

// CurrentState returns the state after the lazy OPEN -> HALF_OPEN check.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()
	return b.state
}

// Snapshot returns a consistent view of the breaker. The window is pruned
// first so stale events never influence the reported failure rate.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()
	b.pruneLocked()

	total := len(b.events)
	failures := 0
	for _, e := range b.events {
		if e.failure {
			failures++
		}
	}
	pct := 0.0
	if total > 0 {
		pct = float64(failures) / float64(total) * 100
	}
	return Snapshot{
		Dependency:   b.name,
		State:        b.state.String(),
		StateValue:   int(b.state),
		TotalCount:   total,
		FailureCount: failures,
		FailurePct:   pct,
	}
}

// Reset forces the breaker closed and clears the window. Operational
// recovery only; normal closing goes through the half-open probes.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateClosed {
		b.transitionLocked(StateClosed)
	}
	b.events = nil
	b.probesIssued = 0
	b.probeSuccesses = 0
	b.openedAt = time.Time{}
}

// refreshLocked performs the lazy OPEN -> HALF_OPEN transition.
// Caller must hold the mutex.
func (b *Breaker) refreshLocked() {
	if b.state != StateOpen {
		return
	}
	if b.now().Sub(b.openedAt) >= b.cfg.OpenDuration {
		b.probesIssued = 0
		b.probeSuccesses = 0
		b.transitionLocked(StateHalfOpen)
	}
}

// pruneLocked drops events older than the rolling window.
// Caller must hold the mutex.
func (b *Breaker) pruneLocked() {
	cutoff := b.now().Add(-b.cfg.Window)
	i := 0
	for i < len(b.events) && !b.events[i].at.After(cutoff) {
		i++
	}
	if i > 0 {
		b.events = append(b.events[:0], b.events[i:]...)
	}
}

// transitionLocked moves to a new state and emits the transition metric.
// Caller must hold the mutex.
func (b *Breaker) transitionLocked(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.metrics.RecordTransition(b.name, from.String(), to.String(), int(to))
	b.logger.Info("breaker state changed", "from", from.String(), "to", to.String())
}
