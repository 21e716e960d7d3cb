// Package breaker implements a per-dependency circuit breaker with a rolling
// failure-rate window and the classic CLOSED, OPEN, HALF_OPEN state machine.
//
// # State machine
//
//   - CLOSED -> OPEN when a recorded failure pushes the windowed failure rate
//     to or above the configured threshold, with at least MinSamples events
//     in the window. Successes never trigger the check.
//   - OPEN -> HALF_OPEN lazily, on the first read after OpenDuration elapsed.
//   - HALF_OPEN -> CLOSED after HalfOpenMaxRequests probes each record a
//     success. The window is cleared on close.
//   - HALF_OPEN -> OPEN immediately on any recorded failure, regardless of
//     prior probe successes.
//
// # Failure semantics
//
// Every public method fails open: an internal panic in bookkeeping makes
// Allow return true and Record* return silently. A bug in the breaker must
// never be the thing that takes the service down.
//
// Breakers are owned by a Registry, one instance per dependency name, shared
// by the middleware pre-check and the dependency wrapper.
package breaker
