package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"veridian-hq/cerberus/pkg/admin"
	"veridian-hq/cerberus/pkg/audit"
	"veridian-hq/cerberus/pkg/config"
	"veridian-hq/cerberus/pkg/guard/breaker"
	"veridian-hq/cerberus/pkg/guard/decision"
	"veridian-hq/cerberus/pkg/guard/drift"
	"veridian-hq/cerberus/pkg/guard/endpoint"
	"veridian-hq/cerberus/pkg/guard/killswitch"
	"veridian-hq/cerberus/pkg/guard/middleware"
	"veridian-hq/cerberus/pkg/guard/ratelimit"
	"veridian-hq/cerberus/pkg/telemetry/health"
	"veridian-hq/cerberus/pkg/telemetry/metrics"
)

func newTestServer(t *testing.T, upstreamURL string, metricsEnabled bool) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.Server.UpstreamURL = upstreamURL
	cfg.Telemetry.Metrics.Enabled = metricsEnabled

	store := config.NewStore(cfg)
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	audits := audit.NewMemoryStore(16)
	switches := killswitch.NewManager(cfg, audits, collector.KillSwitch, nil)
	limiter := ratelimit.NewGuard(cfg.Guard.RateLimit, cfg.Guard.KillSwitch.ImportPathPrefixes, collector.RateLimit, nil)
	breakers := breaker.NewRegistry(cfg.Guard.Breaker, collector.Breaker, nil)
	classifier := endpoint.NewClassifier(cfg.Guard.HighRiskPrefixes)
	normalizer, err := endpoint.NewNormalizer()
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	decisions := decision.NewLayer(
		func() config.DecisionConfig { return store.Snapshot().Guard.Decision },
		nil, classifier, collector.Decision, nil,
	)
	driftGuard := drift.NewGuard(
		func() config.DriftConfig { return store.Snapshot().Guard.Drift },
		switches, decisions,
		drift.NewHeaderInputProvider(nil), drift.NewBaselineEvaluator(nil),
		collector.Drift, nil,
	)
	orchestrator := middleware.NewOrchestrator(
		store.Snapshot, switches, limiter, breakers, decisions, driftGuard,
		normalizer, classifier, collector.Guard, nil,
	)
	adminAPI := admin.NewHandler(switches, breakers, audits, nil)
	checker := health.New(0)

	return NewServer(cfg.Server, cfg.Telemetry.Metrics, orchestrator, adminAPI, collector, checker, nil)
}

func TestRoutesProxyThroughGuard(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("upstream: " + r.URL.Path))
	}))
	defer upstream.Close()

	srv := newTestServer(t, upstream.URL, true)
	handler, err := srv.setupRoutes()
	if err != nil {
		t.Fatalf("setupRoutes: %v", err)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/invoices", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != "upstream: /api/v1/invoices" {
		t.Errorf("body = %q", got)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("no request id on proxied response")
	}
}

func TestRoutesLocalEndpoints(t *testing.T) {
	srv := newTestServer(t, "http://127.0.0.1:1", true)
	handler, err := srv.setupRoutes()
	if err != nil {
		t.Fatalf("setupRoutes: %v", err)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/admin/switches", http.StatusOK},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))
		if w.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}

func TestRoutesMetricsDisabled(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	srv := newTestServer(t, upstream.URL, false)
	handler, err := srv.setupRoutes()
	if err != nil {
		t.Fatalf("setupRoutes: %v", err)
	}

	// With metrics disabled, /metrics falls through to the proxied upstream.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if body := w.Body.String(); len(body) > 0 && body[0] == '#' {
		t.Error("/metrics still serves the exposition format when disabled")
	}
}

func TestSetupRoutesRejectsBadUpstream(t *testing.T) {
	srv := newTestServer(t, "://not-a-url", true)
	if _, err := srv.setupRoutes(); err == nil {
		t.Fatal("expected error for invalid upstream URL")
	}
}

func TestUpstreamFailureIs502(t *testing.T) {
	// Nothing listens on this port.
	srv := newTestServer(t, "http://127.0.0.1:1", true)
	handler, err := srv.setupRoutes()
	if err != nil {
		t.Fatalf("setupRoutes: %v", err)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/invoices", nil))
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}
