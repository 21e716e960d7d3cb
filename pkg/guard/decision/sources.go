package decision

import (
	"context"
	"time"

	"veridian-hq/cerberus/pkg/config"
)

// Signal names collected on every evaluated request.
const (
	SignalConfigFreshness = "CONFIG_FRESHNESS"
	SignalBreakerMapping  = "CB_MAPPING"
)

// ConfigFreshnessSource reports whether the loaded configuration is recent
// enough to trust for enforcement.
type ConfigFreshnessSource struct {
	store  *config.Store
	maxAge time.Duration

	now func() time.Time
}

// NewConfigFreshnessSource builds the source over the live config store.
func NewConfigFreshnessSource(store *config.Store, maxAge time.Duration) *ConfigFreshnessSource {
	return &ConfigFreshnessSource{store: store, maxAge: maxAge, now: time.Now}
}

func (s *ConfigFreshnessSource) Name() string { return SignalConfigFreshness }

// Collect implements Source. A missing load timestamp is INSUFFICIENT; a
// load older than the configured maximum age is STALE.
func (s *ConfigFreshnessSource) Collect(_ context.Context) Signal {
	now := s.now()
	loadedAt := s.store.LoadedAt()

	sig := Signal{Name: SignalConfigFreshness, Status: StatusOK, ObservedAt: now}
	switch {
	case loadedAt.IsZero():
		sig.Status = StatusInsufficient
		sig.ReasonCode = "CONFIG_MISSING"
	case now.Sub(loadedAt) > s.maxAge:
		sig.Status = StatusStale
		sig.ReasonCode = "CONFIG_STALE"
	}
	return sig
}

// BreakerMappingSource reports whether the endpoint-to-dependency mapping is
// populated. Enforcement without a mapping would never consult a breaker.
type BreakerMappingSource struct {
	mapping func() map[string]string

	now func() time.Time
}

// NewBreakerMappingSource builds the source. mapping is called per request so
// config reloads take effect immediately.
func NewBreakerMappingSource(mapping func() map[string]string) *BreakerMappingSource {
	return &BreakerMappingSource{mapping: mapping, now: time.Now}
}

func (s *BreakerMappingSource) Name() string { return SignalBreakerMapping }

// Collect implements Source.
func (s *BreakerMappingSource) Collect(_ context.Context) Signal {
	sig := Signal{Name: SignalBreakerMapping, Status: StatusOK, ObservedAt: s.now()}
	if len(s.mapping()) == 0 {
		sig.Status = StatusInsufficient
		sig.ReasonCode = "CB_MAPPING_MISSING"
	}
	return sig
}
