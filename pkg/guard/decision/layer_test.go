package decision

import (
	"context"
	"testing"
	"time"

	"veridian-hq/cerberus/pkg/config"
	"veridian-hq/cerberus/pkg/guard/endpoint"
)

// stubSource returns a fixed signal.
type stubSource struct {
	name   string
	signal Signal
	calls  int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Collect(_ context.Context) Signal {
	s.calls++
	return s.signal
}

func okSource(name string) *stubSource {
	return &stubSource{name: name, signal: Signal{Name: name, Status: StatusOK}}
}

func badSource(name string, status SignalStatus, reason string) *stubSource {
	return &stubSource{name: name, signal: Signal{Name: name, Status: status, ReasonCode: reason}}
}

func testDecisionConfig() config.DecisionConfig {
	return config.DecisionConfig{
		Enabled:      true,
		Mode:         "SHADOW",
		TenantModes:  map[string]string{},
		EndpointRisk: map[string]string{},
		ConfigMaxAge: 15 * time.Minute,
	}
}

func newTestLayer(t *testing.T, cfg config.DecisionConfig, sources ...Source) *Layer {
	t.Helper()
	classifier := endpoint.NewClassifier([]string{"/api/v1/prices/import/apply"})
	return NewLayer(func() config.DecisionConfig { return cfg }, sources, classifier, nil, nil)
}

func TestEffectiveModeTable(t *testing.T) {
	tests := []struct {
		tenantMode Mode
		risk       RiskClass
		want       Mode
	}{
		{ModeOff, RiskLow, ModeOff},
		{ModeOff, RiskHigh, ModeOff},
		{ModeShadow, RiskLow, ModeShadow},
		{ModeShadow, RiskMedium, ModeShadow},
		{ModeShadow, RiskHigh, ModeShadow},
		{ModeEnforce, RiskLow, ModeShadow},
		{ModeEnforce, RiskMedium, ModeEnforce},
		{ModeEnforce, RiskHigh, ModeEnforce},
	}
	for _, tt := range tests {
		if got := effectiveMode(tt.tenantMode, tt.risk); got != tt.want {
			t.Errorf("effectiveMode(%s, %s) = %s, want %s", tt.tenantMode, tt.risk, got, tt.want)
		}
	}
}

func TestResolveTenantMode(t *testing.T) {
	cfg := testDecisionConfig()
	cfg.Mode = "ENFORCE"
	cfg.TenantModes = map[string]string{"acme": "OFF"}
	cfg.TenantAllowlist = []string{"globex"}
	layer := newTestLayer(t, cfg)

	// Explicit override wins.
	if mode, _, _ := layer.Resolve("acme", "/api/v1/offers", "GET"); mode != ModeOff {
		t.Errorf("override tenant mode = %s, want OFF", mode)
	}
	// Allowlisted tenant takes the global default.
	if mode, _, _ := layer.Resolve("globex", "/api/v1/offers", "GET"); mode != ModeEnforce {
		t.Errorf("allowlisted tenant mode = %s, want ENFORCE", mode)
	}
	// Unknown tenant falls back to the global default.
	if mode, _, _ := layer.Resolve("nobody", "/api/v1/offers", "GET"); mode != ModeEnforce {
		t.Errorf("unknown tenant mode = %s, want ENFORCE", mode)
	}
}

func TestResolveDisabledIsOff(t *testing.T) {
	cfg := testDecisionConfig()
	cfg.Enabled = false
	cfg.Mode = "ENFORCE"
	layer := newTestLayer(t, cfg)

	if mode, _, _ := layer.Resolve("acme", "/api/v1/offers", "GET"); mode != ModeOff {
		t.Errorf("tenant mode with layer disabled = %s, want OFF", mode)
	}
}

func TestResolveRisk(t *testing.T) {
	cfg := testDecisionConfig()
	cfg.EndpointRisk = map[string]string{"/api/v1/invoices": "MEDIUM"}
	layer := newTestLayer(t, cfg)

	// Risk map entry wins.
	if _, risk, _ := layer.Resolve("acme", "/api/v1/invoices", "GET"); risk != RiskMedium {
		t.Errorf("mapped risk = %s, want MEDIUM", risk)
	}
	// High-risk prefix classification.
	if _, risk, _ := layer.Resolve("acme", "/api/v1/prices/import/apply", "POST"); risk != RiskHigh {
		t.Errorf("high-risk prefix risk = %s, want HIGH", risk)
	}
	// Absence of any mapping means LOW.
	if _, risk, _ := layer.Resolve("acme", "/api/v1/offers", "GET"); risk != RiskLow {
		t.Errorf("unmapped risk = %s, want LOW", risk)
	}
}

func TestOffModeCollectsNoSignals(t *testing.T) {
	cfg := testDecisionConfig()
	cfg.Mode = "OFF"
	src := okSource("CONFIG_FRESHNESS")
	layer := newTestLayer(t, cfg, src)

	v := layer.Evaluate(context.Background(), "acme", "/api/v1/offers", "GET")
	if !v.Allowed {
		t.Error("OFF mode blocked a request")
	}
	if v.Snapshot != nil {
		t.Error("OFF mode built a snapshot")
	}
	if src.calls != 0 {
		t.Errorf("OFF mode collected signals %d times, want 0", src.calls)
	}
}

func TestShadowModeNeverBlocks(t *testing.T) {
	cfg := testDecisionConfig()
	cfg.Mode = "SHADOW"
	layer := newTestLayer(t, cfg,
		badSource("CONFIG_FRESHNESS", StatusInsufficient, "CONFIG_MISSING"))

	v := layer.Evaluate(context.Background(), "acme", "/api/v1/offers", "GET")
	if !v.Allowed {
		t.Error("SHADOW mode blocked a request")
	}
	if v.Snapshot == nil || !v.Snapshot.HasInsufficient {
		t.Error("SHADOW verdict missing the snapshot that would have blocked")
	}
}

func TestEnforceLowRiskDowngradesToShadow(t *testing.T) {
	cfg := testDecisionConfig()
	cfg.Mode = "ENFORCE"
	layer := newTestLayer(t, cfg,
		badSource("CONFIG_FRESHNESS", StatusStale, "CONFIG_STALE"))

	// No risk map entry, standard endpoint: risk LOW, effective mode SHADOW.
	v := layer.Evaluate(context.Background(), "acme", "/api/v1/offers", "GET")
	if !v.Allowed {
		t.Error("ENFORCE on a LOW-risk endpoint blocked, want shadow downgrade")
	}
	if v.Snapshot.EffectiveMode != ModeShadow {
		t.Errorf("effective mode = %s, want SHADOW", v.Snapshot.EffectiveMode)
	}
}

func TestEnforceBlocksOnStale(t *testing.T) {
	cfg := testDecisionConfig()
	cfg.Mode = "ENFORCE"
	cfg.EndpointRisk = map[string]string{"/api/v1/invoices": "HIGH"}
	layer := newTestLayer(t, cfg,
		badSource("CONFIG_FRESHNESS", StatusStale, "CONFIG_STALE"),
		okSource("CB_MAPPING"))

	v := layer.Evaluate(context.Background(), "acme", "/api/v1/invoices", "GET")
	if v.Allowed {
		t.Fatal("ENFORCE with a stale signal allowed the request")
	}
	if v.ErrorCode != CodeStale {
		t.Errorf("error code = %s, want %s", v.ErrorCode, CodeStale)
	}
	if len(v.ReasonCodes) != 1 || v.ReasonCodes[0] != "CONFIG_STALE" {
		t.Errorf("reason codes = %v, want [CONFIG_STALE]", v.ReasonCodes)
	}
}

func TestInsufficientTakesPriorityOverStale(t *testing.T) {
	cfg := testDecisionConfig()
	cfg.Mode = "ENFORCE"
	cfg.EndpointRisk = map[string]string{"/api/v1/invoices": "HIGH"}
	layer := newTestLayer(t, cfg,
		badSource("CONFIG_FRESHNESS", StatusStale, "CONFIG_STALE"),
		badSource("CB_MAPPING", StatusInsufficient, "CB_MAPPING_MISSING"))

	v := layer.Evaluate(context.Background(), "acme", "/api/v1/invoices", "GET")
	if v.Allowed {
		t.Fatal("request allowed with bad signals in ENFORCE")
	}
	if v.ErrorCode != CodeInsufficient {
		t.Errorf("error code = %s, want %s (INSUFFICIENT wins)", v.ErrorCode, CodeInsufficient)
	}
	if len(v.ReasonCodes) != 1 || v.ReasonCodes[0] != "CB_MAPPING_MISSING" {
		t.Errorf("reason codes = %v, want the insufficient signal's reasons only", v.ReasonCodes)
	}
}

func TestEnforceAllSignalsOKPasses(t *testing.T) {
	cfg := testDecisionConfig()
	cfg.Mode = "ENFORCE"
	cfg.EndpointRisk = map[string]string{"/api/v1/invoices": "HIGH"}
	layer := newTestLayer(t, cfg, okSource("CONFIG_FRESHNESS"), okSource("CB_MAPPING"))

	v := layer.Evaluate(context.Background(), "acme", "/api/v1/invoices", "GET")
	if !v.Allowed {
		t.Errorf("healthy signals blocked: %+v", v)
	}
	if v.Snapshot.EffectiveMode != ModeEnforce {
		t.Errorf("effective mode = %s, want ENFORCE", v.Snapshot.EffectiveMode)
	}
}

func TestEvaluateFailsOpen(t *testing.T) {
	cfg := testDecisionConfig()
	cfg.Mode = "ENFORCE"
	cfg.EndpointRisk = map[string]string{"/api/v1/invoices": "HIGH"}
	layer := newTestLayer(t, cfg, okSource("CONFIG_FRESHNESS"))
	layer.failHook = func() { panic("boom") }

	v := layer.Evaluate(context.Background(), "acme", "/api/v1/invoices", "GET")
	if !v.Allowed {
		t.Error("failing evaluation blocked the request, want fail-open")
	}
}

func TestSnapshotImmutableShape(t *testing.T) {
	cfg := testDecisionConfig()
	layer := newTestLayer(t, cfg, okSource("CONFIG_FRESHNESS"), okSource("CB_MAPPING"))

	v := layer.Evaluate(context.Background(), "acme", "/api/v1/offers", "GET")
	snap := v.Snapshot
	if snap == nil {
		t.Fatal("no snapshot in SHADOW mode")
	}
	if snap.Tenant != "acme" || snap.Endpoint != "/api/v1/offers" || snap.Method != "GET" {
		t.Errorf("snapshot identity = %s %s %s", snap.Tenant, snap.Method, snap.Endpoint)
	}
	if len(snap.Signals) != 2 {
		t.Errorf("signals = %d, want 2", len(snap.Signals))
	}
	if snap.HasStale || snap.HasInsufficient {
		t.Error("derived booleans set with healthy signals")
	}
	if snap.BuiltAt.IsZero() {
		t.Error("snapshot missing build time")
	}
}
