package decision

import (
	"context"
	"time"
)

// SignalStatus is the health of a single guard signal.
type SignalStatus string

const (
	StatusOK           SignalStatus = "OK"
	StatusStale        SignalStatus = "STALE"
	StatusInsufficient SignalStatus = "INSUFFICIENT"
)

// Signal is one named input to the admission decision.
type Signal struct {
	Name       string       `json:"name"`
	Status     SignalStatus `json:"status"`
	ReasonCode string       `json:"reason_code,omitempty"`
	ObservedAt time.Time    `json:"observed_at"`
}

// Source produces one signal per request.
type Source interface {
	Name() string
	Collect(ctx context.Context) Signal
}
