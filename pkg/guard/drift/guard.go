package drift

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"veridian-hq/cerberus/pkg/config"
	"veridian-hq/cerberus/pkg/guard/decision"
	"veridian-hq/cerberus/pkg/guard/killswitch"
	"veridian-hq/cerberus/pkg/telemetry/metrics"
)

// Outcome is the drift guard's result for one request.
type Outcome struct {
	Blocked    bool
	ErrorCode  string
	ReasonCode string
}

var pass = Outcome{}

// Guard gates and runs drift evaluation per request.
type Guard struct {
	cfg       func() config.DriftConfig
	switches  *killswitch.Manager
	decisions *decision.Layer
	provider  InputProvider
	evaluator Evaluator
	metrics   *metrics.DriftMetrics
	logger    *slog.Logger
}

// NewGuard builds the drift guard. cfg is called per request so config
// reloads take effect without a restart.
func NewGuard(cfg func() config.DriftConfig, switches *killswitch.Manager, decisions *decision.Layer, provider InputProvider, evaluator Evaluator, m *metrics.DriftMetrics, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		cfg:       cfg,
		switches:  switches,
		decisions: decisions,
		provider:  provider,
		evaluator: evaluator,
		metrics:   m,
		logger:    logger.With("component", "drift"),
	}
}

// Check runs the gated drift evaluation for a request.
//
// Gates, in order: the enable flag, the drift kill switch, and the request's
// effective mode. When any gate closes, neither the provider nor the
// evaluator runs. Provider errors pass through when fail_open is set and
// block in ENFORCE mode otherwise. Detected drift blocks only in ENFORCE;
// SHADOW records it and passes.
func (g *Guard) Check(ctx context.Context, r *http.Request, tenant, endpoint, method string) Outcome {
	cfg := g.cfg()
	if !cfg.Enabled {
		return pass
	}
	if g.switches.IsEnabled(killswitch.SwitchDriftGuard) {
		return pass
	}

	_, _, mode := g.decisions.Resolve(tenant, endpoint, method)
	if mode == decision.ModeOff {
		return pass
	}

	provCtx, cancel := context.WithTimeout(ctx, cfg.ProviderTimeout)
	input, err := g.getInput(provCtx, r, endpoint, method, tenant)
	cancel()
	if err != nil {
		g.metrics.RecordEvaluation(string(mode), "provider_error")
		if cfg.FailOpen {
			g.logger.Warn("drift input provider failed, passing through",
				"endpoint", endpoint,
				"error", err)
			return pass
		}
		if mode == decision.ModeEnforce {
			g.metrics.RecordBlock(string(mode))
			return Outcome{Blocked: true, ErrorCode: CodeDrift, ReasonCode: ReasonProviderError}
		}
		return pass
	}

	dec := g.evaluator.Evaluate(input)
	dec.WouldEnforce = mode == decision.ModeEnforce
	if !dec.IsDrift {
		g.metrics.RecordEvaluation(string(mode), "no_drift")
		return pass
	}

	g.metrics.RecordEvaluation(string(mode), "drift")
	if dec.WouldEnforce {
		g.metrics.RecordBlock(string(mode))
		g.logger.Warn("drift detected, blocking",
			"endpoint", endpoint,
			"reason", dec.ReasonCode,
			"detail", dec.Detail,
			"would_enforce", dec.WouldEnforce)
		return Outcome{Blocked: true, ErrorCode: CodeDrift, ReasonCode: dec.ReasonCode}
	}

	g.logger.Info("drift detected in shadow mode",
		"endpoint", endpoint,
		"reason", dec.ReasonCode,
		"detail", dec.Detail,
		"would_enforce", dec.WouldEnforce)
	return pass
}

// getInput shields the guard from a panicking provider.
func (g *Guard) getInput(ctx context.Context, r *http.Request, endpoint, method, tenant string) (input Input, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("drift input provider panicked: %v", rec)
		}
	}()
	return g.provider.GetInput(ctx, r, endpoint, method, tenant)
}
