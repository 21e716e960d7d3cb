// Package admin exposes the operator API: kill switch inspection and
// flipping, circuit breaker snapshots and resets, and the audit trail.
//
// All endpoints speak JSON. Switch flips require an actor, taken from the
// X-Actor header or the request body, so the audit trail stays attributable.
package admin
