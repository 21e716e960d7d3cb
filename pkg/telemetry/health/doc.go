// Package health implements the liveness and readiness probe endpoints.
//
// Liveness only confirms the process is responsive. Readiness runs the
// registered component checks (config store, audit backend) concurrently,
// each under its own timeout, and reports degraded when any fails.
package health
