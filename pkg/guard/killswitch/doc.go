// Package killswitch implements operator-controlled kill switches that can
// refuse classes of traffic instantly, without a deploy.
//
// Switches are named booleans. A fixed rule order maps request attributes to
// switches; the first matching enabled switch denies the request. Flips are
// idempotent and every effective change is written to the audit trail.
package killswitch
