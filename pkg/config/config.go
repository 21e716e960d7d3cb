package config

import "time"

// Config is the root configuration structure for the Cerberus guard layer.
// A loaded Config is treated as immutable; reloads produce a fresh instance
// that is swapped in atomically by the Store.
type Config struct {
	// Server contains the HTTP server and upstream proxy configuration.
	Server ServerConfig `yaml:"server"`

	// Guard contains the configuration of every guard component.
	Guard GuardConfig `yaml:"guard"`

	// Audit contains configuration for the kill-switch audit trail.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the guard's HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// UpstreamURL is the backend service requests are forwarded to once they
	// pass the guard chain. Required when running the server.
	UpstreamURL string `yaml:"upstream_url"`

	// TenantHeader is the request header carrying the tenant identifier.
	// Default: "X-Tenant-ID"
	TenantHeader string `yaml:"tenant_header"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// GuardConfig groups the configuration of all guard components.
type GuardConfig struct {
	// Breaker configures the per-dependency circuit breakers.
	Breaker BreakerConfig `yaml:"breaker"`

	// KillSwitch configures the kill switch manager.
	KillSwitch KillSwitchConfig `yaml:"kill_switch"`

	// RateLimit configures the fixed-window rate limiter.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Dependency configures the dependency call wrapper.
	Dependency DependencyConfig `yaml:"dependency"`

	// Decision configures the guard decision layer.
	Decision DecisionConfig `yaml:"decision"`

	// Drift configures the drift guard.
	Drift DriftConfig `yaml:"drift"`

	// Dependencies maps normalized endpoint prefixes to logical dependency
	// names (e.g. "/api/v1/invoices" -> "db_primary"). Endpoints without a
	// mapping skip the circuit breaker pre-check entirely.
	Dependencies map[string]string `yaml:"dependencies"`

	// HighRiskPrefixes is the allowlist of sensitive endpoint prefixes that
	// classify as high risk. Everything else is standard.
	HighRiskPrefixes []string `yaml:"high_risk_prefixes"`

	// Sweep configures the scheduled maintenance sweeper.
	Sweep SweepConfig `yaml:"sweep"`
}

// BreakerConfig contains circuit breaker tuning.
type BreakerConfig struct {
	// ErrorThresholdPct is the failure percentage at or above which a closed
	// breaker opens, once MinSamples events are in the window.
	// Default: 50
	ErrorThresholdPct float64 `yaml:"error_threshold_pct"`

	// OpenDuration is how long a breaker stays open before probing.
	// Default: 30s
	OpenDuration time.Duration `yaml:"open_duration"`

	// HalfOpenMaxRequests is the number of probe requests admitted while
	// half-open; that many recorded successes close the breaker.
	// Default: 3
	HalfOpenMaxRequests int `yaml:"half_open_max_requests"`

	// Window is the rolling window over which the failure rate is computed.
	// Default: 60s
	Window time.Duration `yaml:"window"`

	// MinSamples is the minimum number of events in the window before the
	// failure rate is considered at all.
	// Default: 10
	MinSamples int `yaml:"min_samples"`
}

// KillSwitchConfig contains kill switch manager configuration.
type KillSwitchConfig struct {
	// DisabledTenants lists tenants whose requests are refused outright.
	// Each entry seeds a "tenant:<id>" switch at startup.
	DisabledTenants []string `yaml:"disabled_tenants"`

	// ImportPathPrefixes lists endpoint prefixes treated as import endpoints
	// by the global_import switch.
	// Default: ["/api/v1/prices/import", "/api/v1/invoices/import"]
	ImportPathPrefixes []string `yaml:"import_path_prefixes"`
}

// RateLimitConfig contains fixed-window rate limiter configuration.
type RateLimitConfig struct {
	// Window is the fixed window length.
	// Default: 60s
	Window time.Duration `yaml:"window"`

	// ImportPerWindow is the per-window limit for the import category.
	// Default: 10
	ImportPerWindow int `yaml:"import_per_window"`

	// HeavyReadPerWindow is the per-window limit for list-style reads.
	// Default: 120
	HeavyReadPerWindow int `yaml:"heavy_read_per_window"`

	// DefaultPerWindow is the per-window limit for everything else.
	// Default: 600
	DefaultPerWindow int `yaml:"default_per_window"`

	// FailOpen allows requests through when the limiter itself fails.
	// The limiter is fail-closed by default: an internal error denies.
	// Default: false
	FailOpen bool `yaml:"fail_open"`

	// HeavyReadPrefixes lists endpoint prefixes whose GETs classify as
	// heavy reads.
	// Default: ["/api/v1/invoices", "/api/v1/prices", "/api/v1/offers"]
	HeavyReadPrefixes []string `yaml:"heavy_read_prefixes"`
}

// DependencyConfig contains dependency wrapper configuration.
type DependencyConfig struct {
	// Timeout is the hard per-call timeout.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// RetryMaxAttempts is the number of retries after the first call.
	// Default: 2
	RetryMaxAttempts int `yaml:"retry_max_attempts"`

	// RetryBackoffBase is the base delay for exponential backoff.
	// Default: 100ms
	RetryBackoffBase time.Duration `yaml:"retry_backoff_base"`

	// RetryBackoffCap caps the exponential backoff delay.
	// Default: 2s
	RetryBackoffCap time.Duration `yaml:"retry_backoff_cap"`

	// RetryJitterPct is the percentage of the delay added as random jitter.
	// Default: 20
	RetryJitterPct float64 `yaml:"retry_jitter_pct"`

	// RetryOnWrite permits retrying write calls. Writes never retry unless
	// this is set.
	// Default: false
	RetryOnWrite bool `yaml:"retry_on_write"`
}

// DecisionConfig contains guard decision layer configuration.
type DecisionConfig struct {
	// Enabled turns the decision layer on. When false every request passes.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Mode is the global default tenant mode: "OFF", "SHADOW" or "ENFORCE".
	// Default: "SHADOW"
	Mode string `yaml:"mode"`

	// TenantModes maps tenant IDs to explicit mode overrides.
	TenantModes map[string]string `yaml:"tenant_modes"`

	// TenantAllowlist lists tenants that run in ENFORCE mode without an
	// explicit override.
	TenantAllowlist []string `yaml:"tenant_allowlist"`

	// EndpointRisk maps normalized endpoints to "LOW", "MEDIUM" or "HIGH".
	// Absence of a mapping means LOW for standard endpoints.
	EndpointRisk map[string]string `yaml:"endpoint_risk"`

	// ConfigMaxAge is how old the loaded configuration snapshot may be
	// before the CONFIG_FRESHNESS signal reports stale.
	// Default: 15m
	ConfigMaxAge time.Duration `yaml:"config_max_age"`
}

// DriftConfig contains drift guard configuration.
type DriftConfig struct {
	// Enabled turns drift evaluation on. When false the provider, the
	// evaluator and the drift metrics are all skipped entirely.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Killswitch seeds the "drift_guard" kill switch at startup; when the
	// switch is on, drift evaluation is skipped the same as when disabled.
	// Default: false
	Killswitch bool `yaml:"killswitch"`

	// FailOpen passes requests through when the input provider fails.
	// When false, a provider error in ENFORCE mode blocks the request.
	// Default: true
	FailOpen bool `yaml:"fail_open"`

	// ProviderTimeout bounds a single input provider call.
	// Default: 250ms
	ProviderTimeout time.Duration `yaml:"provider_timeout"`

	// BaselineHeaders maps request header names to their expected values.
	// The headers are captured as drift input; a deviation from the expected
	// value counts as drift. Empty means no drift is ever detected.
	BaselineHeaders map[string]string `yaml:"baseline_headers"`
}

// SweepConfig contains the maintenance sweeper schedule.
type SweepConfig struct {
	// Schedule is a cron expression for the maintenance sweep (pruning idle
	// rate-limit buckets, refreshing breaker gauges, trimming the audit
	// trail). Empty disables the sweeper.
	// Default: "*/5 * * * *"
	Schedule string `yaml:"schedule"`
}

// AuditConfig contains audit trail storage configuration.
type AuditConfig struct {
	// Backend selects the audit store: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/audit.db"
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionDays is how long audit records are kept. Zero keeps forever.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the output format: "json", "text", "console".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name namespace.
	// Default: "veridian"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric name subsystem.
	// Default: "cerberus"
	Subsystem string `yaml:"subsystem"`
}
