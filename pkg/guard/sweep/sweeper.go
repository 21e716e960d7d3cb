package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"veridian-hq/cerberus/pkg/audit"
	"veridian-hq/cerberus/pkg/config"
	"veridian-hq/cerberus/pkg/guard/breaker"
	"veridian-hq/cerberus/pkg/guard/ratelimit"
)

// Sweeper runs guard maintenance on a cron schedule.
type Sweeper struct {
	cfg       config.SweepConfig
	limiter   *ratelimit.Guard
	breakers  *breaker.Registry
	audits    audit.Store
	retainFor time.Duration
	logger    *slog.Logger

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewSweeper builds a Sweeper. retentionDays bounds the audit trail; zero
// disables audit pruning.
func NewSweeper(cfg config.SweepConfig, limiter *ratelimit.Guard, breakers *breaker.Registry, audits audit.Store, retentionDays int, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		cfg:       cfg,
		limiter:   limiter,
		breakers:  breakers,
		audits:    audits,
		retainFor: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger.With("component", "sweep"),
		cron:      cron.New(),
	}
}

// Start schedules the sweep. An empty schedule disables it. The sweeper
// stops itself when ctx is canceled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping")
		return nil
	}

	if _, err := cron.ParseStandard(s.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.cfg.Schedule, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.runSweep(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("sweeper started", "schedule", s.cfg.Schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runSweep executes one maintenance cycle.
func (s *Sweeper) runSweep(ctx context.Context) {
	removed := s.limiter.PruneIdle()
	s.breakers.RefreshGauges()

	prunedAudits := 0
	if s.retainFor > 0 {
		n, err := s.audits.Prune(ctx, time.Now().Add(-s.retainFor))
		if err != nil {
			s.logger.Error("audit pruning failed", "error", err)
		} else {
			prunedAudits = n
		}
	}

	s.logger.Debug("sweep completed",
		"idle_buckets_removed", removed,
		"audit_records_pruned", prunedAudits)
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("sweeper stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
