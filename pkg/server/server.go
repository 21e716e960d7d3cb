package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"veridian-hq/cerberus/pkg/admin"
	"veridian-hq/cerberus/pkg/config"
	"veridian-hq/cerberus/pkg/guard/middleware"
	"veridian-hq/cerberus/pkg/telemetry/health"
	"veridian-hq/cerberus/pkg/telemetry/metrics"
)

// Server is the guarded reverse proxy front.
type Server struct {
	cfg          config.ServerConfig
	metricsCfg   config.MetricsConfig
	orchestrator *middleware.Orchestrator
	adminAPI     *admin.Handler
	collector    *metrics.Collector
	checker      *health.Checker
	logger       *slog.Logger

	httpServer   *http.Server
	mu           sync.Mutex
	isRunning    bool
	shutdownOnce sync.Once
}

// NewServer assembles the server from its already-built components.
func NewServer(cfg config.ServerConfig, metricsCfg config.MetricsConfig, orchestrator *middleware.Orchestrator, adminAPI *admin.Handler, collector *metrics.Collector, checker *health.Checker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:          cfg,
		metricsCfg:   metricsCfg,
		orchestrator: orchestrator,
		adminAPI:     adminAPI,
		collector:    collector,
		checker:      checker,
		logger:       logger.With("component", "server"),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler, err := s.setupRoutes()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:           s.cfg.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.cfg.ReadTimeout,
		WriteTimeout:   s.cfg.WriteTimeout,
		IdleTimeout:    s.cfg.IdleTimeout,
		MaxHeaderBytes: s.cfg.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"address", s.cfg.ListenAddress,
			"upstream", s.cfg.UpstreamURL)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown",
			"timeout", s.cfg.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// setupRoutes builds the handler tree: local endpoints first, everything
// else through the guard chain into the reverse proxy.
func (s *Server) setupRoutes() (http.Handler, error) {
	upstream, err := url.Parse(s.cfg.UpstreamURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL %q: %w", s.cfg.UpstreamURL, err)
	}
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.logger.Error("upstream request failed",
			"path", r.URL.Path,
			"error", err)
		w.WriteHeader(http.StatusBadGateway)
	}

	mux := http.NewServeMux()
	s.adminAPI.Register(mux)
	mux.HandleFunc("/healthz", s.checker.LivenessHandler())
	mux.HandleFunc("/readyz", s.checker.ReadinessHandler())
	if s.metricsCfg.Enabled {
		mux.Handle(s.metricsCfg.Path, s.collector.Handler())
	}
	mux.Handle("/", s.orchestrator.Handler(proxy))

	var handler http.Handler = mux
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(s.logger)(handler)
	return handler, nil
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
