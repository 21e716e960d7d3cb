package breaker

import (
	"testing"
	"time"

	"veridian-hq/cerberus/pkg/config"
)

func testConfig() config.BreakerConfig {
	return config.BreakerConfig{
		ErrorThresholdPct:   50,
		OpenDuration:        30 * time.Second,
		HalfOpenMaxRequests: 2,
		Window:              60 * time.Second,
		MinSamples:          4,
	}
}

// newTestBreaker returns a breaker on a controllable clock.
func newTestBreaker(t *testing.T, cfg config.BreakerConfig) (*Breaker, *time.Time) {
	t.Helper()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	b := New("billing", cfg, nil, nil)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestOpensAtThresholdWithMinSamples(t *testing.T) {
	b, _ := newTestBreaker(t, testConfig())

	// One success, three failures: 75% failure over 4 samples.
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	if got := b.CurrentState(); got != StateClosed {
		t.Fatalf("state after 3 samples = %v, want CLOSED", got)
	}
	b.RecordFailure()
	if got := b.CurrentState(); got != StateOpen {
		t.Fatalf("state after 4th sample = %v, want OPEN", got)
	}
	if b.Allow() {
		t.Error("Allow() = true on an open breaker")
	}
}

func TestStaysClosedBelowMinSamples(t *testing.T) {
	b, _ := newTestBreaker(t, testConfig())

	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	if got := b.CurrentState(); got != StateClosed {
		t.Errorf("state = %v, want CLOSED below min samples", got)
	}
	if !b.Allow() {
		t.Error("Allow() = false on a closed breaker")
	}
}

func TestStaysClosedBelowThreshold(t *testing.T) {
	b, _ := newTestBreaker(t, testConfig())

	// 40% failure over 5 samples, threshold is 50%.
	b.RecordSuccess()
	b.RecordSuccess()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	if got := b.CurrentState(); got != StateClosed {
		t.Errorf("state = %v, want CLOSED at 40%% failure", got)
	}
}

func TestLazyHalfOpenTransition(t *testing.T) {
	cfg := testConfig()
	b, now := newTestBreaker(t, cfg)

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	if got := b.CurrentState(); got != StateOpen {
		t.Fatalf("state = %v, want OPEN", got)
	}

	// Not yet.
	*now = now.Add(cfg.OpenDuration - time.Second)
	if b.Allow() {
		t.Fatal("Allow() = true before open duration elapsed")
	}

	*now = now.Add(2 * time.Second)
	if got := b.CurrentState(); got != StateHalfOpen {
		t.Fatalf("state = %v, want HALF_OPEN after open duration", got)
	}
}

func TestHalfOpenProbeCap(t *testing.T) {
	cfg := testConfig()
	b, now := newTestBreaker(t, cfg)

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	*now = now.Add(cfg.OpenDuration)

	for i := 0; i < cfg.HalfOpenMaxRequests; i++ {
		if !b.Allow() {
			t.Fatalf("probe %d refused, want admitted", i+1)
		}
	}
	if b.Allow() {
		t.Error("probe above HalfOpenMaxRequests admitted, want refused")
	}
}

func TestHalfOpenSuccessesClose(t *testing.T) {
	cfg := testConfig()
	b, now := newTestBreaker(t, cfg)

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	*now = now.Add(cfg.OpenDuration)

	b.Allow()
	b.RecordSuccess()
	if got := b.CurrentState(); got != StateHalfOpen {
		t.Fatalf("state = %v, want HALF_OPEN after first probe success", got)
	}
	b.Allow()
	b.RecordSuccess()
	if got := b.CurrentState(); got != StateClosed {
		t.Fatalf("state = %v, want CLOSED after %d probe successes", got, cfg.HalfOpenMaxRequests)
	}

	// Closing clears the window so the old failures cannot re-open it.
	snap := b.Snapshot()
	if snap.FailureCount != 0 {
		t.Errorf("failure count after close = %d, want 0", snap.FailureCount)
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cfg := testConfig()
	b, now := newTestBreaker(t, cfg)

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	*now = now.Add(cfg.OpenDuration)

	b.Allow()
	b.RecordFailure()
	if got := b.CurrentState(); got != StateOpen {
		t.Fatalf("state = %v, want OPEN after half-open failure", got)
	}

	// The open period restarts from the reopening failure.
	*now = now.Add(cfg.OpenDuration - time.Second)
	if b.Allow() {
		t.Error("Allow() = true before restarted open duration elapsed")
	}
}

func TestWindowPruning(t *testing.T) {
	cfg := testConfig()
	b, now := newTestBreaker(t, cfg)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()

	// Age the failures out of the window, then add fresh samples.
	*now = now.Add(cfg.Window + time.Second)
	b.RecordSuccess()
	b.RecordFailure()

	snap := b.Snapshot()
	if snap.TotalCount != 2 {
		t.Errorf("total count = %d, want 2 after pruning", snap.TotalCount)
	}
	if got := b.CurrentState(); got != StateClosed {
		t.Errorf("state = %v, want CLOSED when old failures are pruned", got)
	}
}

func TestPruningIsIdempotent(t *testing.T) {
	b, _ := newTestBreaker(t, testConfig())

	b.RecordSuccess()
	b.RecordFailure()

	first := b.Snapshot()
	second := b.Snapshot()
	if first != second {
		t.Errorf("consecutive snapshots differ: %+v vs %+v", first, second)
	}
}

func TestSnapshotEmptyWindow(t *testing.T) {
	b, _ := newTestBreaker(t, testConfig())

	snap := b.Snapshot()
	if snap.TotalCount != 0 || snap.FailureCount != 0 {
		t.Errorf("empty window counts = %d/%d, want 0/0", snap.TotalCount, snap.FailureCount)
	}
	if snap.FailurePct != 0 {
		t.Errorf("empty window failure pct = %v, want 0", snap.FailurePct)
	}
	if snap.State != "CLOSED" || snap.StateValue != 0 {
		t.Errorf("snapshot state = %s/%d, want CLOSED/0", snap.State, snap.StateValue)
	}
}

func TestReset(t *testing.T) {
	b, _ := newTestBreaker(t, testConfig())

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	if got := b.CurrentState(); got != StateOpen {
		t.Fatalf("state = %v, want OPEN before reset", got)
	}

	b.Reset()
	if got := b.CurrentState(); got != StateClosed {
		t.Errorf("state = %v, want CLOSED after reset", got)
	}
	if !b.Allow() {
		t.Error("Allow() = false after reset")
	}
	if snap := b.Snapshot(); snap.TotalCount != 0 {
		t.Errorf("window not cleared by reset: %d events", snap.TotalCount)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "CLOSED"},
		{StateHalfOpen, "HALF_OPEN"},
		{StateOpen, "OPEN"},
		{State(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
