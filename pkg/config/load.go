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
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Parse YAML into a struct pre-seeded with the default-true
	// booleans so an omitted field gets the default while an explicit
	// false survives.
	var cfg Config
	seedBoolDefaults(&cfg)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Apply defaults
	ApplyDefaults(&cfg)

	// Expand ${VAR} references in Git credentials
	expandGitEnvRefs(&cfg)

	// Validate
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CALLISTO_SECTION_FIELD (e.g., CALLISTO_RULES_PATHS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	// First load from file (this already applies defaults)
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// expandGitEnvRefs expands ${VAR} references in the Git fields that
// document support for them, so tokens and passphrases can stay out
// of the configuration file.
func expandGitEnvRefs(cfg *Config) {
	git := &cfg.Rules.Git
	git.Repository = os.ExpandEnv(git.Repository)
	git.Branch = os.ExpandEnv(git.Branch)
	git.Auth.Token = os.ExpandEnv(git.Auth.Token)
	git.Auth.SSHKeyPassphrase = os.ExpandEnv(git.Auth.SSHKeyPassphrase)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format CALLISTO_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Rule loading overrides
	if val := os.Getenv("CALLISTO_RULES_MODE"); val != "" {
		cfg.Rules.Mode = val
	}
	if val := os.Getenv("CALLISTO_RULES_PATHS"); val != "" {
		cfg.Rules.Paths = splitPaths(val)
	}
	if val := os.Getenv("CALLISTO_RULES_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rules.Watch = b
		}
	}
	if val := os.Getenv("CALLISTO_RULES_DEBOUNCE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Rules.Debounce = d
		}
	}
	if val := os.Getenv("CALLISTO_RULES_STRICT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rules.Strict = b
		}
	}

	// Git overrides
	if val := os.Getenv("CALLISTO_RULES_GIT_REPOSITORY"); val != "" {
		cfg.Rules.Git.Repository = val
	}
	if val := os.Getenv("CALLISTO_RULES_GIT_BRANCH"); val != "" {
		cfg.Rules.Git.Branch = val
	}
	if val := os.Getenv("CALLISTO_RULES_GIT_PATH"); val != "" {
		cfg.Rules.Git.Path = val
	}
	if val := os.Getenv("CALLISTO_RULES_GIT_AUTH_TYPE"); val != "" {
		cfg.Rules.Git.Auth.Type = val
	}
	if val := os.Getenv("CALLISTO_RULES_GIT_AUTH_TOKEN"); val != "" {
		cfg.Rules.Git.Auth.Token = val
	}
	if val := os.Getenv("CALLISTO_RULES_GIT_AUTH_SSH_KEY_PATH"); val != "" {
		cfg.Rules.Git.Auth.SSHKeyPath = val
	}
	if val := os.Getenv("CALLISTO_RULES_GIT_POLL_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rules.Git.Poll.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_RULES_GIT_POLL_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Rules.Git.Poll.Interval = d
		}
	}
	if val := os.Getenv("CALLISTO_RULES_GIT_CLONE_LOCAL_PATH"); val != "" {
		cfg.Rules.Git.Clone.LocalPath = val
	}

	// Engine overrides
	if val := os.Getenv("CALLISTO_ENGINE_RESOLUTION"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.Resolution = i
		}
	}
	if val := os.Getenv("CALLISTO_ENGINE_NOISE_SEED"); val != "" {
		if u, err := strconv.ParseUint(val, 10, 64); err == nil {
			cfg.Engine.NoiseSeed = u
		}
	}

	// Trace overrides
	if val := os.Getenv("CALLISTO_TRACE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Trace.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_TRACE_BACKEND"); val != "" {
		cfg.Trace.Backend = val
	}
	if val := os.Getenv("CALLISTO_TRACE_SQLITE_PATH"); val != "" {
		cfg.Trace.SQLite.Path = val
	}
	if val := os.Getenv("CALLISTO_TRACE_SQLITE_DRIVER"); val != "" {
		cfg.Trace.SQLite.Driver = val
	}
	if val := os.Getenv("CALLISTO_TRACE_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Trace.Retention.Days = i
		}
	}

	// Telemetry overrides
	if val := os.Getenv("CALLISTO_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_METRICS_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Telemetry.Metrics.Port = i
		}
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

// splitPaths splits a comma or os.PathListSeparator separated path
// list, trimming whitespace and dropping empty entries.
func splitPaths(val string) []string {
	sep := ","
	if strings.ContainsRune(val, os.PathListSeparator) {
		sep = string(os.PathListSeparator)
	}
	parts := strings.Split(val, sep)
	paths := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
