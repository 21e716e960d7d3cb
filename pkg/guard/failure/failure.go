// Package failure classifies errors on behalf of the circuit breaker and the
// dependency wrapper. It is the single source of truth for what counts as a
// breaker failure: both callers consult the same predicate so a dependency's
// failure rate and its retry behaviour can never disagree.
//
// The classification is total. Any error (or none) yields a boolean; the
// package never panics and never returns an error of its own.
package failure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
)

// StatusCoder is implemented by errors that carry an HTTP-style status code
// from a downstream response.
type StatusCoder interface {
	StatusCode() int
}

// StatusError wraps a bare response status so callers that only have a status
// code can still feed the taxonomy.
type StatusError struct {
	// Code is the HTTP status code of the downstream response.
	Code int

	// Message is an optional description of the response.
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("dependency returned status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("dependency returned status %d", e.Code)
}

// StatusCode returns the carried HTTP status code.
func (e *StatusError) StatusCode() int { return e.Code }

// IsBreakerFailure reports whether err should count against a dependency's
// circuit breaker. The rule, exhaustively:
//
//   - network-class errors (timeouts, refused or reset connections, DNS
//     failures, generic OS-level I/O errors) are failures
//   - responses with status 500-599 are failures
//   - responses with status 400-499, including 429, are client errors and
//     never count against the breaker
//   - every other application error (validation, parsing, lookup) is not a
//     failure
//
// A nil error is never a failure.
func IsBreakerFailure(err error) bool {
	if err == nil {
		return false
	}

	// Status-carrying errors are classified by code alone, even when they
	// also wrap a transport error underneath.
	var sc StatusCoder
	if errors.As(err, &sc) {
		code := sc.StatusCode()
		return code >= 500 && code <= 599
	}

	// Timeouts, whether from a deadline context or a net.Error.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Connection-level syscall errors.
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	// Generic OS-level I/O errors and torn streams.
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}

	return false
}

// IsRetryable reports whether a call that produced err may be retried. The
// definition is identical to IsBreakerFailure: only transport-class and
// server-class errors are worth repeating.
func IsRetryable(err error) bool {
	return IsBreakerFailure(err)
}
