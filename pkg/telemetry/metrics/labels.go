package metrics

// Closed label sets. Recording methods drop values outside these sets
// instead of incrementing, so label cardinality is bounded by construction.

var validOutcomes = map[string]struct{}{
	"success":      {},
	"failure":      {},
	"timeout":      {},
	"circuit_open": {},
	"client_error": {},
}

var validBreakerStates = map[string]struct{}{
	"CLOSED":    {},
	"HALF_OPEN": {},
	"OPEN":      {},
}

var validDecisions = map[string]struct{}{
	"allowed":  {},
	"rejected": {},
}

var validModes = map[string]struct{}{
	"OFF":     {},
	"SHADOW":  {},
	"ENFORCE": {},
}

var validRiskClasses = map[string]struct{}{
	"LOW":    {},
	"MEDIUM": {},
	"HIGH":   {},
}

var validDriftModes = map[string]struct{}{
	"SHADOW":  {},
	"ENFORCE": {},
}

var validDriftOutcomes = map[string]struct{}{
	"drift":          {},
	"no_drift":       {},
	"provider_error": {},
}

var validBlockCodes = map[string]struct{}{
	"OPS_GUARD_INSUFFICIENT": {},
	"OPS_GUARD_STALE":        {},
	"OPS_GUARD_DRIFT":        {},
}

// member reports whether v belongs to the closed set.
func member(set map[string]struct{}, v string) bool {
	_, ok := set[v]
	return ok
}
