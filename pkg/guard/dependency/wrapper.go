package dependency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"veridian-hq/cerberus/pkg/config"
	"veridian-hq/cerberus/pkg/guard/breaker"
	"veridian-hq/cerberus/pkg/guard/failure"
	"veridian-hq/cerberus/pkg/telemetry/metrics"
)

// CircuitOpenError is returned when the dependency's breaker refuses the
// call. The wrapped function was never invoked.
type CircuitOpenError struct {
	Dependency string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for dependency %q", e.Dependency)
}

// Func is the unit of work executed against a dependency.
type Func[T any] func(ctx context.Context) (T, error)

// CallOption modifies how a single call is executed.
type CallOption func(*callOptions)

type callOptions struct {
	write bool
}

// AsWrite marks the call as a write. Writes are not retried unless
// retry_on_write is enabled.
func AsWrite() CallOption {
	return func(o *callOptions) { o.write = true }
}

// Wrapper binds a named dependency to its breaker and call policy.
type Wrapper struct {
	name    string
	breaker *breaker.Breaker
	cfg     config.DependencyConfig
	metrics *metrics.DependencyMetrics
	logger  *slog.Logger

	jitter func() float64
	sleep  func(context.Context, time.Duration) error
}

// NewWrapper builds a Wrapper for the named dependency.
func NewWrapper(name string, b *breaker.Breaker, cfg config.DependencyConfig, m *metrics.DependencyMetrics, logger *slog.Logger) *Wrapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Wrapper{
		name:    name,
		breaker: b,
		cfg:     cfg,
		metrics: m,
		logger:  logger.With("component", "dependency", "dependency", name),
		// Package-level rand is safe for concurrent Calls; a per-wrapper
		// rand.Rand is not.
		jitter: rand.Float64,
		sleep:  sleepCtx,
	}
}

// Name returns the dependency name.
func (w *Wrapper) Name() string { return w.name }

// Breaker exposes the bound circuit breaker.
func (w *Wrapper) Breaker() *breaker.Breaker { return w.breaker }

// Call executes fn against the wrapper's dependency.
//
// The breaker is consulted before every attempt; an open circuit returns
// CircuitOpenError without invoking fn. Each attempt runs under the
// configured hard timeout. Infrastructure failures are recorded on the
// breaker and retried with capped exponential backoff; non-infrastructure
// errors never touch the breaker and never retry.
func Call[T any](ctx context.Context, w *Wrapper, fn Func[T], opts ...CallOption) (T, error) {
	var zero T
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	maxAttempts := w.cfg.RetryMaxAttempts + 1
	if o.write && !w.cfg.RetryOnWrite {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if !w.breaker.Allow() {
			w.metrics.RecordCall(w.name, "circuit_open", 0)
			return zero, &CircuitOpenError{Dependency: w.name}
		}

		start := time.Now()
		result, err := invoke(ctx, w.cfg.Timeout, fn)
		elapsed := time.Since(start)

		if err == nil {
			w.breaker.RecordSuccess()
			w.metrics.RecordCall(w.name, "success", elapsed)
			return result, nil
		}

		timedOut := errors.Is(err, context.DeadlineExceeded)
		if !timedOut && !failure.IsBreakerFailure(err) {
			// Caller mistake: the dependency is healthy.
			w.metrics.RecordCall(w.name, "client_error", elapsed)
			return zero, err
		}

		w.breaker.RecordFailure()
		if timedOut {
			w.metrics.RecordCall(w.name, "timeout", elapsed)
		} else {
			w.metrics.RecordCall(w.name, "failure", elapsed)
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		w.metrics.RecordRetry(w.name)
		w.logger.Warn("dependency call failed, retrying",
			"attempt", attempt,
			"error", err)
		if err := w.sleep(ctx, w.backoff(attempt)); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

// invoke runs fn under the hard timeout. The work runs in its own goroutine
// so a stuck fn cannot hold the caller past the deadline.
func invoke[T any](ctx context.Context, timeout time.Duration, fn Func[T]) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result T
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := fn(callCtx)
		done <- outcome{result: r, err: err}
	}()

	select {
	case <-callCtx.Done():
		var zero T
		return zero, callCtx.Err()
	case o := <-done:
		return o.result, o.err
	}
}

func (w *Wrapper) backoff(attempt int) time.Duration {
	d := w.cfg.RetryBackoffBase << (attempt - 1)
	if d > w.cfg.RetryBackoffCap || d <= 0 {
		d = w.cfg.RetryBackoffCap
	}
	if w.cfg.RetryJitterPct > 0 {
		span := float64(d) * w.cfg.RetryJitterPct / 100
		d += time.Duration(w.jitter() * span)
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
