package guard

// DenyReason identifies why the guard layer refused a request.
// The set is closed; each reason maps to exactly one denial path and the
// reasons are mutually exclusive for a single request.
type DenyReason string

const (
	// ReasonRateLimited indicates the per-endpoint fixed window was exhausted.
	ReasonRateLimited DenyReason = "RATE_LIMITED"

	// ReasonKillSwitched indicates an operator switch refused the request.
	ReasonKillSwitched DenyReason = "KILL_SWITCHED"

	// ReasonCircuitOpen indicates the mapped dependency's breaker is open.
	ReasonCircuitOpen DenyReason = "CIRCUIT_OPEN"

	// ReasonInternalError indicates a guard component failed internally on a
	// path that is configured fail-closed.
	ReasonInternalError DenyReason = "INTERNAL_ERROR"
)

// Valid reports whether r is a member of the closed reason set.
func (r DenyReason) Valid() bool {
	switch r {
	case ReasonRateLimited, ReasonKillSwitched, ReasonCircuitOpen, ReasonInternalError:
		return true
	}
	return false
}

// Denial is the verdict a guard component returns when it refuses a request.
// A nil *Denial means the component allowed the request.
type Denial struct {
	// Reason is the denial reason code.
	Reason DenyReason

	// Detail is a human-readable explanation for logs. It is never sent to
	// clients verbatim.
	Detail string
}
