// Package decision implements the admission decision layer.
//
// Per request it builds an immutable snapshot of named health signals,
// resolves the tenant's mode and the endpoint's risk class, and derives an
// effective mode that controls whether bad signals block (ENFORCE), are only
// reported (SHADOW), or are skipped entirely (OFF). Any internal failure
// results in pass-through.
package decision
