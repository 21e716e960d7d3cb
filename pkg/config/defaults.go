package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultTenantHeader    = "X-Tenant-ID"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Breaker defaults
	DefaultBreakerErrorThresholdPct   = 50.0
	DefaultBreakerOpenDuration        = 30 * time.Second
	DefaultBreakerHalfOpenMaxRequests = 3
	DefaultBreakerWindow              = 60 * time.Second
	DefaultBreakerMinSamples          = 10

	// Rate limit defaults
	DefaultRateLimitWindow     = 60 * time.Second
	DefaultImportPerWindow     = 10
	DefaultHeavyReadPerWindow  = 120
	DefaultDefaultPerWindow    = 600

	// Dependency wrapper defaults
	DefaultDependencyTimeout = 10 * time.Second
	DefaultRetryMaxAttempts  = 2
	DefaultRetryBackoffBase  = 100 * time.Millisecond
	DefaultRetryBackoffCap   = 2 * time.Second
	DefaultRetryJitterPct    = 20.0

	// Decision layer defaults
	DefaultDecisionMode  = "SHADOW"
	DefaultConfigMaxAge  = 15 * time.Minute

	// Drift guard defaults
	DefaultDriftProviderTimeout = 250 * time.Millisecond

	// Sweep defaults
	DefaultSweepSchedule = "*/5 * * * *"

	// Audit defaults
	DefaultAuditBackend       = "memory"
	DefaultAuditSQLitePath    = "data/audit.db"
	DefaultAuditRetentionDays = 90

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "veridian"
	DefaultMetricsSubsystem = "cerberus"
)

// Default slice values. Returned fresh from Default so callers can mutate
// their copy safely.
var (
	defaultImportPathPrefixes = []string{"/api/v1/prices/import", "/api/v1/invoices/import"}
	defaultHeavyReadPrefixes  = []string{"/api/v1/invoices", "/api/v1/prices", "/api/v1/offers"}
	defaultHighRiskPrefixes   = []string{"/api/v1/prices/import/apply", "/api/v1/prices/import/preview", "/admin/"}
)

// Default returns a fully populated default configuration. LoadConfig
// unmarshals the YAML file on top of this, so fields whose default is not the
// zero value (enabled flags, fail-open flags) resolve correctly when absent
// from the file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress:   DefaultListenAddress,
			TenantHeader:    DefaultTenantHeader,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxHeaderBytes:  DefaultMaxHeaderBytes,
		},
		Guard: GuardConfig{
			Breaker: BreakerConfig{
				ErrorThresholdPct:   DefaultBreakerErrorThresholdPct,
				OpenDuration:        DefaultBreakerOpenDuration,
				HalfOpenMaxRequests: DefaultBreakerHalfOpenMaxRequests,
				Window:              DefaultBreakerWindow,
				MinSamples:          DefaultBreakerMinSamples,
			},
			KillSwitch: KillSwitchConfig{
				ImportPathPrefixes: append([]string(nil), defaultImportPathPrefixes...),
			},
			RateLimit: RateLimitConfig{
				Window:             DefaultRateLimitWindow,
				ImportPerWindow:    DefaultImportPerWindow,
				HeavyReadPerWindow: DefaultHeavyReadPerWindow,
				DefaultPerWindow:   DefaultDefaultPerWindow,
				FailOpen:           false,
				HeavyReadPrefixes:  append([]string(nil), defaultHeavyReadPrefixes...),
			},
			Dependency: DependencyConfig{
				Timeout:          DefaultDependencyTimeout,
				RetryMaxAttempts: DefaultRetryMaxAttempts,
				RetryBackoffBase: DefaultRetryBackoffBase,
				RetryBackoffCap:  DefaultRetryBackoffCap,
				RetryJitterPct:   DefaultRetryJitterPct,
				RetryOnWrite:     false,
			},
			Decision: DecisionConfig{
				Enabled:      true,
				Mode:         DefaultDecisionMode,
				ConfigMaxAge: DefaultConfigMaxAge,
			},
			Drift: DriftConfig{
				Enabled:         false,
				Killswitch:      false,
				FailOpen:        true,
				ProviderTimeout: DefaultDriftProviderTimeout,
			},
			HighRiskPrefixes: append([]string(nil), defaultHighRiskPrefixes...),
			Sweep: SweepConfig{
				Schedule: DefaultSweepSchedule,
			},
		},
		Audit: AuditConfig{
			Backend:       DefaultAuditBackend,
			SQLitePath:    DefaultAuditSQLitePath,
			RetentionDays: DefaultAuditRetentionDays,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:  DefaultLoggingLevel,
				Format: DefaultLoggingFormat,
			},
			Metrics: MetricsConfig{
				Enabled:   true,
				Path:      DefaultMetricsPath,
				Namespace: DefaultMetricsNamespace,
				Subsystem: DefaultMetricsSubsystem,
			},
		},
	}
}
