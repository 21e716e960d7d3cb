package ratelimit

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"veridian-hq/cerberus/pkg/config"
	"veridian-hq/cerberus/pkg/guard"
	"veridian-hq/cerberus/pkg/telemetry/metrics"
)

// Category classifies an endpoint for limit selection.
type Category string

const (
	CategoryImport    Category = "import"
	CategoryHeavyRead Category = "heavy_read"
	CategoryDefault   Category = "default"
)

type bucket struct {
	windowStart time.Time
	count       int
}

// Guard is the fixed-window rate limiter.
type Guard struct {
	cfg            config.RateLimitConfig
	importPrefixes []string
	metrics        *metrics.RateLimitMetrics
	logger         *slog.Logger

	mu      sync.Mutex
	buckets map[string]*bucket

	now func() time.Time

	failHook func()
}

// NewGuard builds a rate limiter from cfg. importPrefixes are the endpoint
// prefixes whose POSTs count against the import limit.
func NewGuard(cfg config.RateLimitConfig, importPrefixes []string, m *metrics.RateLimitMetrics, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		cfg:            cfg,
		importPrefixes: importPrefixes,
		metrics:        m,
		logger:         logger.With("component", "ratelimit"),
		buckets:        make(map[string]*bucket),
		now:            time.Now,
	}
}

// Classify maps a normalized endpoint and method to its limit category.
// Mutations to import endpoints count as imports; GETs on configured
// heavy-read prefixes count as heavy reads; everything else is default.
func (g *Guard) Classify(endpoint, method string) Category {
	if method == "POST" {
		for _, prefix := range g.importPrefixes {
			if strings.HasPrefix(endpoint, prefix) {
				return CategoryImport
			}
		}
	}
	if method == "GET" {
		for _, prefix := range g.cfg.HeavyReadPrefixes {
			if strings.HasPrefix(endpoint, prefix) {
				return CategoryHeavyRead
			}
		}
	}
	return CategoryDefault
}

func (g *Guard) limitFor(cat Category) int {
	switch cat {
	case CategoryImport:
		return g.cfg.ImportPerWindow
	case CategoryHeavyRead:
		return g.cfg.HeavyReadPerWindow
	default:
		return g.cfg.DefaultPerWindow
	}
}

// Check counts the request against its endpoint's window and denies once the
// category limit is exceeded. The limit itself is still admitted; only
// requests strictly above it are refused.
//
// An internal failure denies the request (fail closed) unless fail_open is
// configured; either way the rejection is counted.
func (g *Guard) Check(endpoint, method string) (denial *guard.Denial) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("rate limit evaluation panicked",
				"endpoint", endpoint,
				"panic", fmt.Sprint(r))
			if g.cfg.FailOpen {
				denial = nil
				return
			}
			g.metrics.RecordDecision(endpoint, "rejected")
			denial = &guard.Denial{
				Reason: guard.ReasonInternalError,
				Detail: "rate limit evaluation failed",
			}
		}
	}()

	if g.failHook != nil {
		g.failHook()
	}

	cat := g.Classify(endpoint, method)
	limit := g.limitFor(cat)
	now := g.now()

	g.mu.Lock()
	b, ok := g.buckets[endpoint]
	if !ok || now.Sub(b.windowStart) >= g.cfg.Window {
		g.buckets[endpoint] = &bucket{windowStart: now, count: 1}
		g.mu.Unlock()
		g.metrics.RecordDecision(endpoint, "allowed")
		return nil
	}
	b.count++
	count := b.count
	g.mu.Unlock()

	if count > limit {
		g.metrics.RecordDecision(endpoint, "rejected")
		return &guard.Denial{
			Reason: guard.ReasonRateLimited,
			Detail: fmt.Sprintf("%s limit of %d per %s exceeded", cat, limit, g.cfg.Window),
		}
	}
	g.metrics.RecordDecision(endpoint, "allowed")
	return nil
}

// RetryAfter returns the whole seconds until the endpoint's current window
// resets, clamped to [1, window]. Unknown endpoints get a full window.
func (g *Guard) RetryAfter(endpoint string) int {
	g.mu.Lock()
	b, ok := g.buckets[endpoint]
	g.mu.Unlock()

	maxSecs := int(g.cfg.Window / time.Second)
	if maxSecs < 1 {
		maxSecs = 1
	}
	if !ok {
		return maxSecs
	}

	remaining := g.cfg.Window - g.now().Sub(b.windowStart)
	secs := int((remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	if secs > maxSecs {
		secs = maxSecs
	}
	return secs
}

// PruneIdle drops buckets whose window expired at least one full window ago
// and reports how many were removed. Run from the periodic sweeper.
func (g *Guard) PruneIdle() int {
	cutoff := g.now().Add(-2 * g.cfg.Window)

	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for endpoint, b := range g.buckets {
		if b.windowStart.Before(cutoff) {
			delete(g.buckets, endpoint)
			removed++
		}
	}
	return removed
}
