package drift

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HeaderInputProvider builds drift inputs from a fixed set of request
// headers, typically client build or schema version headers.
type HeaderInputProvider struct {
	headers []string
}

// NewHeaderInputProvider builds a provider that captures the named headers.
func NewHeaderInputProvider(headers []string) *HeaderInputProvider {
	return &HeaderInputProvider{headers: headers}
}

// GetInput implements InputProvider.
func (p *HeaderInputProvider) GetInput(_ context.Context, r *http.Request, endpoint, method, tenant string) (Input, error) {
	attrs := make(map[string]string, len(p.headers))
	for _, h := range p.headers {
		if v := r.Header.Get(h); v != "" {
			attrs[h] = v
		}
	}
	return Input{
		Tenant:     tenant,
		Endpoint:   endpoint,
		Method:     method,
		Attributes: attrs,
		ObservedAt: time.Now(),
	}, nil
}

// BaselineEvaluator compares input attributes against a fixed baseline.
type BaselineEvaluator struct {
	baseline map[string]string
}

// NewBaselineEvaluator builds an evaluator over the expected attribute set.
func NewBaselineEvaluator(baseline map[string]string) *BaselineEvaluator {
	return &BaselineEvaluator{baseline: baseline}
}

// Evaluate implements Evaluator. A missing expected attribute is a baseline
// deviation; a present attribute with an unexpected value is a config
// mismatch.
func (e *BaselineEvaluator) Evaluate(input Input) Decision {
	for key, want := range e.baseline {
		got, ok := input.Attributes[key]
		if !ok {
			return Decision{
				IsDrift:    true,
				ReasonCode: ReasonBaselineDeviation,
				Detail:     fmt.Sprintf("attribute %q missing", key),
			}
		}
		if got != want {
			return Decision{
				IsDrift:    true,
				ReasonCode: ReasonConfigMismatch,
				Detail:     fmt.Sprintf("attribute %q deviates from baseline", key),
			}
		}
	}
	return Decision{}
}
