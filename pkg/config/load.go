package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is unmarshaled on top of the default configuration, so fields
// absent from the file keep their documented defaults, including defaults
// that are not the Go zero value. The result is validated before return.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	normalize(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// CERBERUS_SECTION_FIELD (e.g. CERBERUS_SERVER_LISTEN_ADDRESS) and always
// take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	normalize(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// normalize canonicalizes mode and risk spellings so the rest of the system
// can compare them without case folding.
func normalize(cfg *Config) {
	cfg.Guard.Decision.Mode = strings.ToUpper(cfg.Guard.Decision.Mode)
	for tenant, mode := range cfg.Guard.Decision.TenantModes {
		cfg.Guard.Decision.TenantModes[tenant] = strings.ToUpper(mode)
	}
	for endpoint, risk := range cfg.Guard.Decision.EndpointRisk {
		cfg.Guard.Decision.EndpointRisk[endpoint] = strings.ToUpper(risk)
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("CERBERUS_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("CERBERUS_SERVER_UPSTREAM_URL"); val != "" {
		cfg.Server.UpstreamURL = val
	}
	if val := os.Getenv("CERBERUS_SERVER_TENANT_HEADER"); val != "" {
		cfg.Server.TenantHeader = val
	}
	if d, ok := envDuration("CERBERUS_SERVER_READ_TIMEOUT"); ok {
		cfg.Server.ReadTimeout = d
	}
	if d, ok := envDuration("CERBERUS_SERVER_WRITE_TIMEOUT"); ok {
		cfg.Server.WriteTimeout = d
	}
	if d, ok := envDuration("CERBERUS_SERVER_SHUTDOWN_TIMEOUT"); ok {
		cfg.Server.ShutdownTimeout = d
	}

	if f, ok := envFloat("CERBERUS_BREAKER_ERROR_THRESHOLD_PCT"); ok {
		cfg.Guard.Breaker.ErrorThresholdPct = f
	}
	if d, ok := envDuration("CERBERUS_BREAKER_OPEN_DURATION"); ok {
		cfg.Guard.Breaker.OpenDuration = d
	}
	if n, ok := envInt("CERBERUS_BREAKER_HALF_OPEN_MAX_REQUESTS"); ok {
		cfg.Guard.Breaker.HalfOpenMaxRequests = n
	}
	if d, ok := envDuration("CERBERUS_BREAKER_WINDOW"); ok {
		cfg.Guard.Breaker.Window = d
	}
	if n, ok := envInt("CERBERUS_BREAKER_MIN_SAMPLES"); ok {
		cfg.Guard.Breaker.MinSamples = n
	}

	if d, ok := envDuration("CERBERUS_RATE_LIMIT_WINDOW"); ok {
		cfg.Guard.RateLimit.Window = d
	}
	if n, ok := envInt("CERBERUS_RATE_LIMIT_IMPORT_PER_WINDOW"); ok {
		cfg.Guard.RateLimit.ImportPerWindow = n
	}
	if n, ok := envInt("CERBERUS_RATE_LIMIT_HEAVY_READ_PER_WINDOW"); ok {
		cfg.Guard.RateLimit.HeavyReadPerWindow = n
	}
	if n, ok := envInt("CERBERUS_RATE_LIMIT_DEFAULT_PER_WINDOW"); ok {
		cfg.Guard.RateLimit.DefaultPerWindow = n
	}

	if d, ok := envDuration("CERBERUS_DEPENDENCY_TIMEOUT"); ok {
		cfg.Guard.Dependency.Timeout = d
	}
	if n, ok := envInt("CERBERUS_DEPENDENCY_RETRY_MAX_ATTEMPTS"); ok {
		cfg.Guard.Dependency.RetryMaxAttempts = n
	}

	if val := os.Getenv("CERBERUS_DECISION_MODE"); val != "" {
		cfg.Guard.Decision.Mode = val
	}
	if val := os.Getenv("CERBERUS_DECISION_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Guard.Decision.Enabled = b
		}
	}
	if val := os.Getenv("CERBERUS_DRIFT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Guard.Drift.Enabled = b
		}
	}

	if val := os.Getenv("CERBERUS_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CERBERUS_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("CERBERUS_AUDIT_BACKEND"); val != "" {
		cfg.Audit.Backend = val
	}
	if val := os.Getenv("CERBERUS_AUDIT_SQLITE_PATH"); val != "" {
		cfg.Audit.SQLitePath = val
	}
}

func envDuration(name string) (time.Duration, bool) {
	val := os.Getenv(name)
	if val == "" {
		return 0, false
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, false
	}
	return d, true
}

func envInt(name string) (int, bool) {
	val := os.Getenv(name)
	if val == "" {
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(name string) (float64, bool) {
	val := os.Getenv(name)
	if val == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
