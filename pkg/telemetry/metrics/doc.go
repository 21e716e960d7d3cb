// Package metrics provides the Prometheus instrumentation for the guard
// layer: circuit breaker state and transitions, kill switch activations,
// rate limit decisions, dependency call outcomes, decision layer verdicts,
// drift evaluations and the guard's own fail-open events.
//
// Every labelled metric validates its label values against a closed set and
// silently drops unknown values. An out-of-enum label never crashes and never
// creates a new series, so cardinality stays bounded no matter what callers
// pass in.
package metrics
