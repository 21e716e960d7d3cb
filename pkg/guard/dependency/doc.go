// Package dependency wraps outbound dependency calls with a circuit breaker,
// a hard timeout, and bounded retries with jittered exponential backoff.
//
// Only infrastructure failures feed the breaker and qualify for retry; caller
// mistakes pass through untouched. Writes never retry unless explicitly
// enabled, to avoid duplicating non-idempotent operations.
package dependency
