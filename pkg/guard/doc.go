// Package guard defines the shared vocabulary of the admission guard layer:
// the closed set of denial reasons and the denial value passed between the
// individual guard components and the orchestrating middleware.
//
// The guard layer sits in front of the business handler and decides, per
// request, whether the request may proceed. Each component (kill switch,
// rate limiter, circuit breaker pre-check, decision layer, drift guard)
// returns at most one Denial; the orchestrator short-circuits on the first.
package guard
