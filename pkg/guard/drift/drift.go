package drift

import (
	"context"
	"net/http"
	"time"
)

// Reason codes emitted on drift blocks. The set is closed.
const (
	ReasonProviderError     = "DRIFT:PROVIDER_ERROR"
	ReasonBaselineDeviation = "DRIFT:BASELINE_DEVIATION"
	ReasonConfigMismatch    = "DRIFT:CONFIG_MISMATCH"
)

// CodeDrift is the block code returned to clients on an enforced drift block.
const CodeDrift = "OPS_GUARD_DRIFT"

// Input is the provider-collected material a drift evaluation runs on.
type Input struct {
	Tenant     string
	Endpoint   string
	Method     string
	Attributes map[string]string
	ObservedAt time.Time
}

// Decision is the outcome of evaluating one Input. WouldEnforce records
// whether the request's resolved mode would have blocked, so shadow-mode
// detections stay distinguishable in logs.
type Decision struct {
	IsDrift      bool
	WouldEnforce bool
	ReasonCode   string
	Detail       string
}

// InputProvider collects the drift input for a request. Implementations must
// honor ctx; the guard applies the configured provider timeout.
type InputProvider interface {
	GetInput(ctx context.Context, r *http.Request, endpoint, method, tenant string) (Input, error)
}

// Evaluator judges an Input against a baseline.
type Evaluator interface {
	Evaluate(input Input) Decision
}
