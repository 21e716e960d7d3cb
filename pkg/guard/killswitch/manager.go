package killswitch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"veridian-hq/cerberus/pkg/audit"
	"veridian-hq/cerberus/pkg/config"
	"veridian-hq/cerberus/pkg/guard"
	"veridian-hq/cerberus/pkg/telemetry/metrics"
)

// Well-known switch names. Tenant switches are derived with TenantSwitch.
const (
	// SwitchGlobalImport refuses all requests to import endpoints.
	SwitchGlobalImport = "global_import"

	// SwitchDegradeMode refuses all mutating requests.
	SwitchDegradeMode = "degrade_mode"

	// SwitchDriftGuard disables drift evaluation entirely while enabled.
	SwitchDriftGuard = "drift_guard"
)

// TenantSwitch returns the switch name that disables a single tenant.
func TenantSwitch(tenant string) string {
	return "tenant:" + tenant
}

// Change describes the outcome of a switch flip.
type Change struct {
	Switch   string `json:"switch"`
	Previous bool   `json:"previous"`
	Enabled  bool   `json:"enabled"`
	Changed  bool   `json:"changed"`
}

// Manager holds the switch states and applies the deny rules.
//
// Reads are hot-path (every request); flips are rare. A plain RWMutex over a
// small map is sufficient.
type Manager struct {
	importPrefixes []string
	audit          audit.Store
	metrics        *metrics.KillSwitchMetrics
	logger         *slog.Logger

	mu       sync.RWMutex
	switches map[string]bool

	now func() time.Time

	failHook func()
}

// NewManager builds a Manager seeded from cfg: each disabled tenant becomes an
// enabled "tenant:<id>" switch, and the drift kill switch mirrors
// cfg.Drift.Killswitch.
func NewManager(cfg *config.Config, store audit.Store, m *metrics.KillSwitchMetrics, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	mgr := &Manager{
		importPrefixes: cfg.Guard.KillSwitch.ImportPathPrefixes,
		audit:          store,
		metrics:        m,
		logger:         logger.With("component", "killswitch"),
		switches:       make(map[string]bool),
		now:            time.Now,
	}
	for _, tenant := range cfg.Guard.KillSwitch.DisabledTenants {
		mgr.switches[TenantSwitch(tenant)] = true
	}
	if cfg.Guard.Drift.Killswitch {
		mgr.switches[SwitchDriftGuard] = true
	}
	return mgr
}

// CheckRequest applies the deny rules in order and returns the first denial,
// or nil when no enabled switch matches.
//
// Rule order:
//  1. global_import, when endpoint is an import endpoint
//  2. tenant:<id>, when the request carries that tenant
//  3. degrade_mode, when the method is mutating
//
// An internal failure falls back asymmetrically: high-risk requests are
// refused with INTERNAL_ERROR, standard requests pass.
func (m *Manager) CheckRequest(tenant, endpoint, method string, highRisk bool) (denial *guard.Denial) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("kill switch evaluation panicked",
				"endpoint", endpoint,
				"panic", fmt.Sprint(r))
			if highRisk {
				m.metrics.RecordError("closed")
				denial = &guard.Denial{
					Reason: guard.ReasonInternalError,
					Detail: "kill switch evaluation failed on high-risk endpoint",
				}
			} else {
				m.metrics.RecordError("open")
				denial = nil
			}
		}
	}()

	if m.failHook != nil {
		m.failHook()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.switches[SwitchGlobalImport] && m.isImportEndpoint(endpoint) {
		return m.deny(SwitchGlobalImport, "import traffic is disabled")
	}
	if tenant != "" && m.switches[TenantSwitch(tenant)] {
		return m.deny(TenantSwitch(tenant), "tenant is disabled")
	}
	if m.switches[SwitchDegradeMode] && isMutating(method) {
		return m.deny(SwitchDegradeMode, "mutating traffic is disabled")
	}
	return nil
}

func (m *Manager) deny(name, detail string) *guard.Denial {
	m.metrics.RecordDenial(name)
	return &guard.Denial{Reason: guard.ReasonKillSwitched, Detail: detail}
}

func (m *Manager) isImportEndpoint(endpoint string) bool {
	for _, prefix := range m.importPrefixes {
		if strings.HasPrefix(endpoint, prefix) {
			return true
		}
	}
	return false
}

func isMutating(method string) bool {
	switch method {
	case "POST", "PUT", "DELETE", "PATCH":
		return true
	}
	return false
}

// SetSwitch flips the named switch and records the change in the audit trail.
// Setting a switch to its current state is a no-op: no audit record, no
// metric.
func (m *Manager) SetSwitch(ctx context.Context, name string, enabled bool, actor string) (Change, error) {
	if name == "" {
		return Change{}, fmt.Errorf("switch name must not be empty")
	}

	m.mu.Lock()
	previous := m.switches[name]
	if previous == enabled {
		m.mu.Unlock()
		return Change{Switch: name, Previous: previous, Enabled: enabled}, nil
	}
	if enabled {
		m.switches[name] = true
	} else {
		delete(m.switches, name)
	}
	m.mu.Unlock()

	m.metrics.RecordChange(name, enabled)
	m.logger.Info("kill switch changed",
		"switch", name,
		"enabled", enabled,
		"actor", actor)

	rec := audit.Record{
		ID:       uuid.NewString(),
		Switch:   name,
		Previous: previous,
		Enabled:  enabled,
		Actor:    actor,
		At:       m.now(),
	}
	if err := m.audit.Append(ctx, rec); err != nil {
		// The flip already took effect; audit loss is logged, not fatal.
		m.logger.Error("failed to append audit record",
			"switch", name,
			"error", err)
	}

	return Change{Switch: name, Previous: previous, Enabled: enabled, Changed: true}, nil
}

// IsEnabled reports the current state of the named switch.
func (m *Manager) IsEnabled(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.switches[name]
}

// GetAll returns the names of all currently enabled switches, sorted.
func (m *Manager) GetAll() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.switches))
	for name, on := range m.switches {
		if on {
			names = append(names, name)
		}
	}
	m.mu.RUnlock()
	sort.Strings(names)
	return names
}
