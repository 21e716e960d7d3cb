// Package drift evaluates per-request drift signals against a baseline.
//
// The guard is fully gated: a disabled flag or an operator kill switch skips
// the provider and evaluator entirely. Dispatch otherwise follows the same
// effective-mode resolution as the decision layer, so SHADOW tenants only
// report drift while ENFORCE tenants can be blocked on it.
package drift
