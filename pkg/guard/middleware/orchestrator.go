package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"veridian-hq/cerberus/pkg/config"
	"veridian-hq/cerberus/pkg/guard"
	"veridian-hq/cerberus/pkg/guard/breaker"
	"veridian-hq/cerberus/pkg/guard/decision"
	"veridian-hq/cerberus/pkg/guard/drift"
	"veridian-hq/cerberus/pkg/guard/endpoint"
	"veridian-hq/cerberus/pkg/guard/killswitch"
	"veridian-hq/cerberus/pkg/guard/ratelimit"
	"veridian-hq/cerberus/pkg/telemetry/metrics"
)

// errorResponse is the body sent with every guard denial.
type errorResponse struct {
	ErrorCode   string   `json:"errorCode"`
	ReasonCodes []string `json:"reasonCodes,omitempty"`
}

// verdict is an internal denial produced by one chain step.
type verdict struct {
	status     int
	body       errorResponse
	retryAfter int
	layer      string
}

// Orchestrator runs the guard chain in front of the proxied handler.
type Orchestrator struct {
	cfg        func() *config.Config
	switches   *killswitch.Manager
	limiter    *ratelimit.Guard
	breakers   *breaker.Registry
	decisions  *decision.Layer
	drift      *drift.Guard
	normalizer *endpoint.Normalizer
	classifier *endpoint.Classifier
	metrics    *metrics.GuardMetrics
	logger     *slog.Logger
}

// NewOrchestrator wires the guard chain. cfg is called per request so config
// reloads take effect without a restart.
func NewOrchestrator(
	cfg func() *config.Config,
	switches *killswitch.Manager,
	limiter *ratelimit.Guard,
	breakers *breaker.Registry,
	decisions *decision.Layer,
	driftGuard *drift.Guard,
	normalizer *endpoint.Normalizer,
	classifier *endpoint.Classifier,
	m *metrics.GuardMetrics,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:        cfg,
		switches:   switches,
		limiter:    limiter,
		breakers:   breakers,
		decisions:  decisions,
		drift:      driftGuard,
		normalizer: normalizer,
		classifier: classifier,
		metrics:    m,
		logger:     logger.With("component", "guard"),
	}
}

// Handler wraps next with the guard chain.
func (o *Orchestrator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := o.evaluate(r); v != nil {
			o.writeDenial(w, v)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// evaluate runs the chain and returns the first denial, or nil to admit.
// A panic anywhere in the chain admits the request.
func (o *Orchestrator) evaluate(r *http.Request) (v *verdict) {
	defer func() {
		if rec := recover(); rec != nil {
			o.metrics.RecordFailOpen("chain")
			o.logger.Error("guard chain panicked, failing open",
				"path", r.URL.Path,
				"panic", fmt.Sprint(rec))
			v = nil
		}
	}()

	cfg := o.cfg()
	tenant := r.Header.Get(cfg.Server.TenantHeader)
	endpointLabel := o.normalizer.Normalize("", r.URL.Path, o.pathIsKnown(cfg, r.URL.Path))
	highRisk := o.classifier.Classify(r.URL.Path, r.Method) == endpoint.RiskHigh

	if denial := o.switches.CheckRequest(tenant, endpointLabel, r.Method, highRisk); denial != nil {
		return o.deny("killswitch", denial)
	}

	if denial := o.limiter.Check(endpointLabel, r.Method); denial != nil {
		if denial.Reason == guard.ReasonRateLimited {
			o.metrics.RecordDenial(string(denial.Reason))
			o.logger.Info("request denied",
				"layer", "ratelimit",
				"detail", denial.Detail)
			return &verdict{
				status:     http.StatusTooManyRequests,
				body:       errorResponse{ErrorCode: string(denial.Reason)},
				retryAfter: o.limiter.RetryAfter(endpointLabel),
				layer:      "ratelimit",
			}
		}
		return o.deny("ratelimit", denial)
	}

	if dep := dependencyFor(cfg.Guard.Dependencies, endpointLabel); dep != "" {
		if !o.breakers.Get(dep).Allow() {
			return o.deny("breaker", &guard.Denial{
				Reason: guard.ReasonCircuitOpen,
				Detail: "dependency " + dep + " unavailable",
			})
		}
	}

	if dv := o.decisions.Evaluate(r.Context(), tenant, endpointLabel, r.Method); !dv.Allowed {
		o.metrics.RecordDenial("GUARD_BLOCK")
		return &verdict{
			status: http.StatusServiceUnavailable,
			body:   errorResponse{ErrorCode: dv.ErrorCode, ReasonCodes: dv.ReasonCodes},
			layer:  "decision",
		}
	}

	if out := o.drift.Check(r.Context(), r, tenant, endpointLabel, r.Method); out.Blocked {
		o.metrics.RecordDenial("GUARD_BLOCK")
		return &verdict{
			status: http.StatusServiceUnavailable,
			body:   errorResponse{ErrorCode: out.ErrorCode, ReasonCodes: []string{out.ReasonCode}},
			layer:  "drift",
		}
	}

	return nil
}

func (o *Orchestrator) deny(layer string, denial *guard.Denial) *verdict {
	o.metrics.RecordDenial(string(denial.Reason))
	o.logger.Info("request denied",
		"layer", layer,
		"reason", denial.Reason,
		"detail", denial.Detail)
	return &verdict{
		status: http.StatusServiceUnavailable,
		body:   errorResponse{ErrorCode: string(denial.Reason)},
		layer:  layer,
	}
}

// pathIsKnown reports whether the raw path falls under any configured
// endpoint prefix. Unknown paths get the collapsed unmatched label.
func (o *Orchestrator) pathIsKnown(cfg *config.Config, path string) bool {
	for prefix := range cfg.Guard.Dependencies {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, prefix := range cfg.Guard.KillSwitch.ImportPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, prefix := range cfg.Guard.RateLimit.HeavyReadPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, prefix := range cfg.Guard.HighRiskPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// dependencyFor resolves the endpoint's dependency by longest prefix match.
// An empty result means no breaker applies.
func dependencyFor(mapping map[string]string, endpointLabel string) string {
	var best string
	var dep string
	for prefix, name := range mapping {
		if strings.HasPrefix(endpointLabel, prefix) && len(prefix) > len(best) {
			best = prefix
			dep = name
		}
	}
	return dep
}

func (o *Orchestrator) writeDenial(w http.ResponseWriter, v *verdict) {
	w.Header().Set("Content-Type", "application/json")
	if v.retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(v.retryAfter))
	}
	w.WriteHeader(v.status)
	if err := json.NewEncoder(w).Encode(v.body); err != nil {
		o.logger.Error("failed to write denial response", "error", err)
	}
}
