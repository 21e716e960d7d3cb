package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

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
	"veridian-hq/cerberus/pkg/guard/sweep"
	"veridian-hq/cerberus/pkg/server"
	"veridian-hq/cerberus/pkg/telemetry/health"
	"veridian-hq/cerberus/pkg/telemetry/logging"
	"veridian-hq/cerberus/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Cerberus guard proxy",
	Long: `Start the Cerberus guard proxy with the specified configuration.

The server listens on the configured address and proxies requests to the
upstream service through the guard chain.

Examples:
  # Start with default config
  cerberus run

  # Start with custom config
  cerberus run --config /etc/cerberus/config.yaml

  # Override listen address
  cerberus run --listen 0.0.0.0:8080

  # Validate config without starting
  cerberus run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Telemetry.Logging, nil)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Cerberus v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	store := config.NewStore(cfg)
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	auditStore, err := buildAuditStore(cfg)
	if err != nil {
		return err
	}
	defer auditStore.Close()
	fmt.Printf("✓ Audit store initialized (%s)\n", cfg.Audit.Backend)

	switches := killswitch.NewManager(cfg, auditStore, collector.KillSwitch, logger)

	normalizer, err := endpoint.NewNormalizer()
	if err != nil {
		return fmt.Errorf("failed to build endpoint normalizer: %w", err)
	}
	classifier := endpoint.NewClassifier(cfg.Guard.HighRiskPrefixes)

	breakers := breaker.NewRegistry(cfg.Guard.Breaker, collector.Breaker, logger)
	for _, dep := range dependencyNames(cfg.Guard.Dependencies) {
		breakers.Get(dep)
	}

	limiter := ratelimit.NewGuard(cfg.Guard.RateLimit, cfg.Guard.KillSwitch.ImportPathPrefixes, collector.RateLimit, logger)

	sources := []decision.Source{
		decision.NewConfigFreshnessSource(store, cfg.Guard.Decision.ConfigMaxAge),
		decision.NewBreakerMappingSource(func() map[string]string {
			return store.Snapshot().Guard.Dependencies
		}),
	}
	decisions := decision.NewLayer(
		func() config.DecisionConfig { return store.Snapshot().Guard.Decision },
		sources, classifier, collector.Decision, logger,
	)

	baseline := cfg.Guard.Drift.BaselineHeaders
	headers := make([]string, 0, len(baseline))
	for h := range baseline {
		headers = append(headers, h)
	}
	sort.Strings(headers)
	driftGuard := drift.NewGuard(
		func() config.DriftConfig { return store.Snapshot().Guard.Drift },
		switches, decisions,
		drift.NewHeaderInputProvider(headers),
		drift.NewBaselineEvaluator(baseline),
		collector.Drift, logger,
	)

	orchestrator := middleware.NewOrchestrator(
		store.Snapshot, switches, limiter, breakers, decisions, driftGuard,
		normalizer, classifier, collector.Guard, logger,
	)

	checker := health.New(0)
	checker.RegisterCheck("config", func(ctx context.Context) error {
		if store.LoadedAt().IsZero() {
			return fmt.Errorf("configuration never loaded")
		}
		return nil
	})
	checker.RegisterCheck("audit", func(ctx context.Context) error {
		_, err := auditStore.List(ctx, 1)
		return err
	})

	adminAPI := admin.NewHandler(switches, breakers, auditStore, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := config.NewWatcher(cfgFile, store, logger)
	go func() {
		if err := watcher.Watch(ctx); err != nil {
			logger.Error("config watcher stopped", "error", err)
		}
	}()

	sweeper := sweep.NewSweeper(cfg.Guard.Sweep, limiter, breakers, auditStore, cfg.Audit.RetentionDays, logger)
	if err := sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sweeper: %w", err)
	}
	defer sweeper.Stop()

	srv := server.NewServer(cfg.Server, cfg.Telemetry.Metrics, orchestrator, adminAPI, collector, checker, logger)

	fmt.Printf("✓ Guard chain initialized (%d dependencies)\n", len(cfg.Guard.Dependencies))
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(ctx)
}

func buildAuditStore(cfg *config.Config) (audit.Store, error) {
	switch cfg.Audit.Backend {
	case "sqlite":
		return audit.NewSQLiteStore(cfg.Audit.SQLitePath)
	case "memory":
		return audit.NewMemoryStore(0), nil
	}
	return nil, fmt.Errorf("unsupported audit backend: %s", cfg.Audit.Backend)
}

func dependencyNames(mapping map[string]string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, dep := range mapping {
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		names = append(names, dep)
	}
	sort.Strings(names)
	return names
}
