package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	return &ConfigBuilder{cfg: *New()}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithRulesMode sets the rule loading mode.
func (b *ConfigBuilder) WithRulesMode(mode string) *ConfigBuilder {
	b.cfg.Rules.Mode = mode
	return b
}

// WithRulePaths sets the rule file paths.
func (b *ConfigBuilder) WithRulePaths(paths ...string) *ConfigBuilder {
	b.cfg.Rules.Paths = paths
	return b
}

// WithRulesWatch sets whether rule files are watched for changes.
func (b *ConfigBuilder) WithRulesWatch(watch bool) *ConfigBuilder {
	b.cfg.Rules.Watch = watch
	return b
}

// WithRulesDebounce sets the watch debounce interval.
func (b *ConfigBuilder) WithRulesDebounce(d time.Duration) *ConfigBuilder {
	b.cfg.Rules.Debounce = d
	return b
}

// WithGitRepository sets the git rule repository and switches to git mode.
func (b *ConfigBuilder) WithGitRepository(url string) *ConfigBuilder {
	b.cfg.Rules.Mode = "git"
	b.cfg.Rules.Git.Enabled = true
	b.cfg.Rules.Git.Repository = url
	if b.cfg.Rules.Git.Branch == "" {
		b.cfg.Rules.Git.Branch = DefaultGitBranch
	}
	return b
}

// WithGitAuth sets the git authentication type and token.
func (b *ConfigBuilder) WithGitAuth(authType, token string) *ConfigBuilder {
	b.cfg.Rules.Git.Auth.Type = authType
	b.cfg.Rules.Git.Auth.Token = token
	return b
}

// WithEngineResolution sets the sigma inversion resolution.
func (b *ConfigBuilder) WithEngineResolution(resolution int) *ConfigBuilder {
	b.cfg.Engine.Resolution = resolution
	return b
}

// WithStageWidths sets the channel-count-to-stage mapping.
func (b *ConfigBuilder) WithStageWidths(widths ...int) *ConfigBuilder {
	b.cfg.Engine.StageWidths = widths
	return b
}

// WithTraceEnabled sets whether trace recording is enabled.
func (b *ConfigBuilder) WithTraceEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Trace.Enabled = enabled
	return b
}

// WithTraceBackend sets the trace storage backend.
func (b *ConfigBuilder) WithTraceBackend(backend string) *ConfigBuilder {
	b.cfg.Trace.Backend = backend
	return b
}

// WithSQLitePath sets the SQLite database path for traces.
func (b *ConfigBuilder) WithSQLitePath(path string) *ConfigBuilder {
	b.cfg.Trace.SQLite.Path = path
	b.cfg.Trace.Backend = "sqlite"
	return b
}

// WithRetentionDays sets the trace retention period.
func (b *ConfigBuilder) WithRetentionDays(days int) *ConfigBuilder {
	b.cfg.Trace.Retention.Days = days
	return b
}

// WithLoggingLevel sets the logging level.
func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// WithLoggingFormat sets the logging format.
func (b *ConfigBuilder) WithLoggingFormat(format string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Format = format
	return b
}

// WithMetricsEnabled sets whether metrics are enabled.
func (b *ConfigBuilder) WithMetricsEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Telemetry.Metrics.Enabled = enabled
	return b
}

// WithTracingEnabled sets whether tracing is enabled.
func (b *ConfigBuilder) WithTracingEnabled(enabled bool, endpoint string) *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Enabled = enabled
	b.cfg.Telemetry.Tracing.Endpoint = endpoint
	if b.cfg.Telemetry.Tracing.SampleRatio == 0 {
		b.cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	return b
}

// MinimalConfig returns a minimal valid configuration for testing.
// This is useful for tests that don't care about most configuration values.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
