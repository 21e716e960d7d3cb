package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks a configuration for internal consistency. It returns the
// first problem found, wrapped with the offending section and field.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validateGuard(&cfg.Guard); err != nil {
		return fmt.Errorf("guard: %w", err)
	}
	if err := validateAudit(&cfg.Audit); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.ListenAddress == "" {
		return fmt.Errorf("listen_address must not be empty")
	}
	if cfg.UpstreamURL != "" {
		u, err := url.Parse(cfg.UpstreamURL)
		if err != nil {
			return fmt.Errorf("upstream_url is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("upstream_url scheme must be http or https, got %q", u.Scheme)
		}
	}
	return nil
}

func validateGuard(cfg *GuardConfig) error {
	b := cfg.Breaker
	if b.ErrorThresholdPct <= 0 || b.ErrorThresholdPct > 100 {
		return fmt.Errorf("breaker.error_threshold_pct must be in (0, 100], got %v", b.ErrorThresholdPct)
	}
	if b.OpenDuration <= 0 {
		return fmt.Errorf("breaker.open_duration must be positive")
	}
	if b.HalfOpenMaxRequests < 1 {
		return fmt.Errorf("breaker.half_open_max_requests must be at least 1")
	}
	if b.Window <= 0 {
		return fmt.Errorf("breaker.window must be positive")
	}
	if b.MinSamples < 1 {
		return fmt.Errorf("breaker.min_samples must be at least 1")
	}

	rl := cfg.RateLimit
	if rl.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}
	if rl.ImportPerWindow < 1 || rl.HeavyReadPerWindow < 1 || rl.DefaultPerWindow < 1 {
		return fmt.Errorf("rate_limit per-window limits must be at least 1")
	}

	d := cfg.Dependency
	if d.Timeout <= 0 {
		return fmt.Errorf("dependency.timeout must be positive")
	}
	if d.RetryMaxAttempts < 0 {
		return fmt.Errorf("dependency.retry_max_attempts must not be negative")
	}
	if d.RetryBackoffBase <= 0 || d.RetryBackoffCap < d.RetryBackoffBase {
		return fmt.Errorf("dependency.retry_backoff_cap must be >= retry_backoff_base > 0")
	}
	if d.RetryJitterPct < 0 || d.RetryJitterPct > 100 {
		return fmt.Errorf("dependency.retry_jitter_pct must be in [0, 100]")
	}

	if err := validateMode(cfg.Decision.Mode); err != nil {
		return fmt.Errorf("decision.mode: %w", err)
	}
	for tenant, mode := range cfg.Decision.TenantModes {
		if err := validateMode(mode); err != nil {
			return fmt.Errorf("decision.tenant_modes[%s]: %w", tenant, err)
		}
	}
	for endpoint, risk := range cfg.Decision.EndpointRisk {
		switch strings.ToUpper(risk) {
		case "LOW", "MEDIUM", "HIGH":
		default:
			return fmt.Errorf("decision.endpoint_risk[%s]: unknown risk class %q", endpoint, risk)
		}
	}
	if cfg.Decision.ConfigMaxAge <= 0 {
		return fmt.Errorf("decision.config_max_age must be positive")
	}

	if cfg.Drift.ProviderTimeout <= 0 {
		return fmt.Errorf("drift.provider_timeout must be positive")
	}

	if cfg.Sweep.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Sweep.Schedule); err != nil {
			return fmt.Errorf("sweep.schedule: invalid cron expression %q: %w", cfg.Sweep.Schedule, err)
		}
	}
	return nil
}

func validateMode(mode string) error {
	switch strings.ToUpper(mode) {
	case "OFF", "SHADOW", "ENFORCE":
		return nil
	}
	return fmt.Errorf("unknown mode %q (want OFF, SHADOW or ENFORCE)", mode)
}

func validateAudit(cfg *AuditConfig) error {
	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("backend must be \"memory\" or \"sqlite\", got %q", cfg.Backend)
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		return fmt.Errorf("sqlite_path must be set for the sqlite backend")
	}
	if cfg.RetentionDays < 0 {
		return fmt.Errorf("retention_days must not be negative")
	}
	return nil
}

func validateTelemetry(cfg *TelemetryConfig) error {
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text", "console":
	default:
		return fmt.Errorf("logging.format: unknown format %q", cfg.Logging.Format)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		return fmt.Errorf("metrics.path must not be empty when metrics are enabled")
	}
	return nil
}
