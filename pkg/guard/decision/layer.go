package decision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"veridian-hq/cerberus/pkg/config"
	"veridian-hq/cerberus/pkg/guard/endpoint"
	"veridian-hq/cerberus/pkg/telemetry/metrics"
)

// Mode is a tenant's configured admission mode.
type Mode string

const (
	ModeOff     Mode = "OFF"
	ModeShadow  Mode = "SHADOW"
	ModeEnforce Mode = "ENFORCE"
)

// RiskClass is the three-level risk classification used for mode resolution.
type RiskClass string

const (
	RiskLow    RiskClass = "LOW"
	RiskMedium RiskClass = "MEDIUM"
	RiskHigh   RiskClass = "HIGH"
)

// Block codes returned to clients on an enforced block.
const (
	CodeInsufficient = "OPS_GUARD_INSUFFICIENT"
	CodeStale        = "OPS_GUARD_STALE"
)

// Snapshot is the immutable per-request view the verdict is derived from.
// It is built fresh per request and discarded.
type Snapshot struct {
	Tenant          string    `json:"tenant"`
	Endpoint        string    `json:"endpoint"`
	Method          string    `json:"method"`
	Signals         []Signal  `json:"signals"`
	HasStale        bool      `json:"has_stale"`
	HasInsufficient bool      `json:"has_insufficient"`
	TenantMode      Mode      `json:"tenant_mode"`
	RiskClass       RiskClass `json:"risk_class"`
	EffectiveMode   Mode      `json:"effective_mode"`
	BuiltAt         time.Time `json:"built_at"`
}

// Verdict is the decision layer's outcome for one request.
type Verdict struct {
	Allowed     bool
	ErrorCode   string
	ReasonCodes []string
	Snapshot    *Snapshot
}

// Layer resolves modes and evaluates admission verdicts.
type Layer struct {
	cfg        func() config.DecisionConfig
	sources    []Source
	classifier *endpoint.Classifier
	metrics    *metrics.DecisionMetrics
	logger     *slog.Logger

	now func() time.Time

	failHook func()
}

// NewLayer builds the decision layer. cfg is called per request so config
// reloads take effect without a restart.
func NewLayer(cfg func() config.DecisionConfig, sources []Source, classifier *endpoint.Classifier, m *metrics.DecisionMetrics, logger *slog.Logger) *Layer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Layer{
		cfg:        cfg,
		sources:    sources,
		classifier: classifier,
		metrics:    m,
		logger:     logger.With("component", "decision"),
		now:        time.Now,
	}
}

// Resolve computes the tenant mode, risk class, and effective mode for a
// request without building a snapshot. The drift guard reuses this.
func (l *Layer) Resolve(tenant, endpointLabel, method string) (Mode, RiskClass, Mode) {
	cfg := l.cfg()

	tenantMode := l.resolveTenantMode(cfg, tenant)
	risk := l.resolveRisk(cfg, endpointLabel, method)
	return tenantMode, risk, effectiveMode(tenantMode, risk)
}

func (l *Layer) resolveTenantMode(cfg config.DecisionConfig, tenant string) Mode {
	if !cfg.Enabled {
		return ModeOff
	}
	if mode, ok := cfg.TenantModes[tenant]; ok {
		return Mode(mode)
	}
	for _, t := range cfg.TenantAllowlist {
		if t == tenant {
			return Mode(cfg.Mode)
		}
	}
	// Unknown tenants take the global default; only the count is recorded,
	// never the tenant id.
	l.metrics.RecordUnknownTenant()
	return Mode(cfg.Mode)
}

func (l *Layer) resolveRisk(cfg config.DecisionConfig, endpointLabel, method string) RiskClass {
	if risk, ok := cfg.EndpointRisk[endpointLabel]; ok {
		return RiskClass(risk)
	}
	if l.classifier.Classify(endpointLabel, method) == endpoint.RiskHigh {
		return RiskHigh
	}
	return RiskLow
}

// effectiveMode applies the tenant_mode x risk_class table. ENFORCE on a
// LOW-risk endpoint downgrades to SHADOW so an incomplete risk map cannot
// block benign traffic.
func effectiveMode(tenantMode Mode, risk RiskClass) Mode {
	switch tenantMode {
	case ModeOff:
		return ModeOff
	case ModeShadow:
		return ModeShadow
	case ModeEnforce:
		if risk == RiskLow {
			return ModeShadow
		}
		return ModeEnforce
	}
	return ModeOff
}

// Evaluate builds the per-request snapshot and returns the verdict.
//
// OFF passes through without collecting any signal. SHADOW collects and
// reports but always passes. ENFORCE blocks on INSUFFICIENT signals first,
// then on STALE ones. Any internal failure passes the request through.
func (l *Layer) Evaluate(ctx context.Context, tenant, endpointLabel, method string) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("decision evaluation panicked",
				"endpoint", endpointLabel,
				"panic", fmt.Sprint(r))
			verdict = Verdict{Allowed: true}
		}
	}()

	if l.failHook != nil {
		l.failHook()
	}

	tenantMode, risk, effective := l.Resolve(tenant, endpointLabel, method)
	if effective == ModeOff {
		l.metrics.RecordRequest(string(ModeOff), string(risk))
		return Verdict{Allowed: true}
	}

	snap := l.buildSnapshot(ctx, tenant, endpointLabel, method, tenantMode, risk, effective)
	l.metrics.RecordRequest(string(effective), string(risk))

	code, reasons := blockingCondition(snap)
	if code == "" {
		return Verdict{Allowed: true, Snapshot: snap}
	}

	if effective == ModeShadow {
		l.metrics.RecordWouldBlock(code)
		l.logger.Info("shadow mode would block",
			"tenant_mode", tenantMode,
			"endpoint", endpointLabel,
			"code", code,
			"reasons", reasons)
		return Verdict{Allowed: true, Snapshot: snap}
	}

	l.metrics.RecordBlock(string(effective), code)
	l.logger.Warn("request blocked",
		"endpoint", endpointLabel,
		"code", code,
		"reasons", reasons)
	return Verdict{Allowed: false, ErrorCode: code, ReasonCodes: reasons, Snapshot: snap}
}

func (l *Layer) buildSnapshot(ctx context.Context, tenant, endpointLabel, method string, tenantMode Mode, risk RiskClass, effective Mode) *Snapshot {
	snap := &Snapshot{
		Tenant:        tenant,
		Endpoint:      endpointLabel,
		Method:        method,
		Signals:       make([]Signal, 0, len(l.sources)),
		TenantMode:    tenantMode,
		RiskClass:     risk,
		EffectiveMode: effective,
		BuiltAt:       l.now(),
	}
	for _, src := range l.sources {
		sig := src.Collect(ctx)
		snap.Signals = append(snap.Signals, sig)
		switch sig.Status {
		case StatusStale:
			snap.HasStale = true
		case StatusInsufficient:
			snap.HasInsufficient = true
		}
	}
	return snap
}

// blockingCondition returns the block code and the reason codes of the
// triggering signals, or "" when all signals are OK. INSUFFICIENT wins over
// STALE when both are present.
func blockingCondition(snap *Snapshot) (string, []string) {
	if snap.HasInsufficient {
		return CodeInsufficient, reasonsFor(snap, StatusInsufficient)
	}
	if snap.HasStale {
		return CodeStale, reasonsFor(snap, StatusStale)
	}
	return "", nil
}

func reasonsFor(snap *Snapshot, status SignalStatus) []string {
	var reasons []string
	for _, sig := range snap.Signals {
		if sig.Status == status && sig.ReasonCode != "" {
			reasons = append(reasons, sig.ReasonCode)
		}
	}
	return reasons
}
