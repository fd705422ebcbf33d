package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "rules.mode").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	// Validate rule loading configuration
	errs = append(errs, validateRules(&cfg.Rules)...)

	// Validate engine configuration
	errs = append(errs, validateEngine(&cfg.Engine)...)

	// Validate trace configuration
	errs = append(errs, validateTrace(&cfg.Trace)...)

	// Validate telemetry configuration
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateRules validates rule loading configuration.
func validateRules(cfg *RulesConfig) []FieldError {
	var errs []FieldError

	// Validate mode
	validModes := map[string]bool{"file": true, "git": true}
	if cfg.Mode == "" {
		errs = append(errs, FieldError{
			Field:   "rules.mode",
			Message: "mode is required",
		})
	} else if !validModes[cfg.Mode] {
		errs = append(errs, FieldError{
			Field:   "rules.mode",
			Message: fmt.Sprintf("invalid mode %q: must be 'file' or 'git'", cfg.Mode),
		})
	}

	// Validate paths when in file mode
	if cfg.Mode == "file" && len(cfg.Paths) == 0 {
		errs = append(errs, FieldError{
			Field:   "rules.paths",
			Message: "at least one rule path is required when mode is 'file'",
		})
	}

	// Validate debounce
	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "rules.debounce",
			Message: "debounce must be non-negative",
		})
	}

	// Validate git configuration when in git mode
	if cfg.Mode == "git" {
		errs = append(errs, validateGit(&cfg.Git)...)
	}

	return errs
}

// validateGit validates Git rule source configuration.
func validateGit(cfg *GitRulesConfig) []FieldError {
	var errs []FieldError

	if cfg.Repository == "" {
		errs = append(errs, FieldError{
			Field:   "rules.git.repository",
			Message: "git repository is required when mode is 'git'",
		})
	}
	if cfg.Branch == "" {
		errs = append(errs, FieldError{
			Field:   "rules.git.branch",
			Message: "git branch is required when mode is 'git'",
		})
	}

	// Validate auth type
	validAuthTypes := map[string]bool{"token": true, "ssh": true, "none": true}
	if !validAuthTypes[cfg.Auth.Type] {
		errs = append(errs, FieldError{
			Field:   "rules.git.auth.type",
			Message: fmt.Sprintf("invalid auth type %q: must be 'token', 'ssh', or 'none'", cfg.Auth.Type),
		})
	}
	if cfg.Auth.Type == "token" && cfg.Auth.Token == "" {
		errs = append(errs, FieldError{
			Field:   "rules.git.auth.token",
			Message: "token is required when auth type is 'token'",
		})
	}
	if cfg.Auth.Type == "ssh" && cfg.Auth.SSHKeyPath == "" {
		errs = append(errs, FieldError{
			Field:   "rules.git.auth.ssh_key_path",
			Message: "ssh key path is required when auth type is 'ssh'",
		})
	}

	// Validate poll settings
	if cfg.Poll.Enabled && cfg.Poll.Interval <= 0 {
		errs = append(errs, FieldError{
			Field:   "rules.git.poll.interval",
			Message: "poll interval must be positive when polling is enabled",
		})
	}
	if cfg.Poll.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "rules.git.poll.timeout",
			Message: "poll timeout must be non-negative",
		})
	}

	// Validate clone settings
	if cfg.Clone.Depth < 0 {
		errs = append(errs, FieldError{
			Field:   "rules.git.clone.depth",
			Message: "clone depth must be non-negative",
		})
	}

	return errs
}

// validateEngine validates engine configuration.
func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	if cfg.Resolution <= 0 {
		errs = append(errs, FieldError{
			Field:   "engine.resolution",
			Message: "resolution must be positive",
		})
	}
	if cfg.Resolution > 100000 {
		errs = append(errs, FieldError{
			Field:   "engine.resolution",
			Message: "resolution exceeds reasonable limit (100000)",
		})
	}

	if len(cfg.StageWidths) == 0 {
		errs = append(errs, FieldError{
			Field:   "engine.stage_widths",
			Message: "at least one stage width is required",
		})
	}
	seen := make(map[int]bool, len(cfg.StageWidths))
	for i, w := range cfg.StageWidths {
		field := fmt.Sprintf("engine.stage_widths[%d]", i)
		if w <= 0 {
			errs = append(errs, FieldError{
				Field:   field,
				Message: "stage width must be positive",
			})
		}
		if seen[w] {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("duplicate stage width %d", w),
			})
		}
		seen[w] = true
	}

	return errs
}

// validateTrace validates trace configuration.
func validateTrace(cfg *TraceConfig) []FieldError {
	var errs []FieldError

	// Validate backend
	validBackends := map[string]bool{"memory": true, "sqlite": true}
	if cfg.Backend == "" {
		errs = append(errs, FieldError{
			Field:   "trace.backend",
			Message: "backend is required",
		})
	} else if !validBackends[cfg.Backend] {
		errs = append(errs, FieldError{
			Field:   "trace.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}

	// Validate memory backend settings
	if cfg.Backend == "memory" && cfg.Memory.Capacity <= 0 {
		errs = append(errs, FieldError{
			Field:   "trace.memory.capacity",
			Message: "capacity must be positive when backend is 'memory'",
		})
	}

	// Validate SQLite backend settings
	if cfg.Backend == "sqlite" {
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "trace.sqlite.path",
				Message: "path is required when backend is 'sqlite'",
			})
		}
		validDrivers := map[string]bool{"sqlite3": true, "sqlite": true}
		if !validDrivers[cfg.SQLite.Driver] {
			errs = append(errs, FieldError{
				Field:   "trace.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q: must be 'sqlite3' or 'sqlite'", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.MaxOpenConns < 1 {
			errs = append(errs, FieldError{
				Field:   "trace.sqlite.max_open_conns",
				Message: "max open connections must be at least 1",
			})
		}
		if cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{
				Field:   "trace.sqlite.max_idle_conns",
				Message: "max idle connections must be non-negative",
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "trace.sqlite.busy_timeout",
				Message: "busy timeout must be non-negative",
			})
		}
	}

	// Validate recorder settings
	if cfg.Recorder.AsyncBuffer <= 0 {
		errs = append(errs, FieldError{
			Field:   "trace.recorder.async_buffer",
			Message: "async buffer must be positive",
		})
	}
	if cfg.Recorder.WriteTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "trace.recorder.write_timeout",
			Message: "write timeout must be positive",
		})
	}

	// Validate retention settings
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "trace.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "trace.retention.max_records",
			Message: "max records must be non-negative",
		})
	}
	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "trace.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	// Validate query settings
	if cfg.Query.DefaultLimit <= 0 {
		errs = append(errs, FieldError{
			Field:   "trace.query.default_limit",
			Message: "default limit must be positive",
		})
	}
	if cfg.Query.MaxLimit < cfg.Query.DefaultLimit {
		errs = append(errs, FieldError{
			Field:   "trace.query.max_limit",
			Message: "max limit cannot be less than default limit",
		})
	}
	if cfg.Query.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "trace.query.timeout",
			Message: "query timeout must be non-negative",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging configuration
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}
	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}
	for i, pattern := range cfg.Logging.RedactPatterns {
		if _, err := regexp.Compile(pattern.Pattern); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d]", i),
				Message: fmt.Sprintf("invalid pattern: %v", err),
			})
		}
	}

	// Validate metrics configuration
	if cfg.Metrics.Enabled {
		if cfg.Metrics.Path == "" || cfg.Metrics.Path[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		if cfg.Metrics.Port < 0 || cfg.Metrics.Port > 65535 {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.port",
				Message: "metrics port must be between 0 and 65535",
			})
		}
	}

	// Validate tracing configuration
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}
	if cfg.Tracing.OTLP.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.otlp.timeout",
			Message: "otlp timeout must be non-negative",
		})
	}

	// Validate health check configuration
	if cfg.Health.Enabled {
		if cfg.Health.LivenessPath == "" || cfg.Health.LivenessPath[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.liveness_path",
				Message: "liveness path must start with /",
			})
		}
		if cfg.Health.ReadinessPath == "" || cfg.Health.ReadinessPath[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.readiness_path",
				Message: "readiness path must start with /",
			})
		}
		if cfg.Health.VersionPath == "" || cfg.Health.VersionPath[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.version_path",
				Message: "version path must start with /",
			})
		}
		if cfg.Health.CheckTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout must be positive",
			})
		}
		if cfg.Health.CheckTimeout > 60*time.Second {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout exceeds reasonable limit (60s)",
			})
		}
	}

	return errs
}
