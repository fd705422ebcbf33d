package config

import "time"

// Default values for configuration fields.
const (
	// Rule loading defaults
	DefaultRulesMode     = "file"
	DefaultRulesPath     = "./rules.yaml"
	DefaultRulesDebounce = 500 * time.Millisecond

	// Git defaults
	DefaultGitBranch       = "main"
	DefaultGitAuthType     = "none"
	DefaultGitPollEnabled  = true
	DefaultGitPollInterval = 30 * time.Second
	DefaultGitPollTimeout  = 10 * time.Second
	DefaultGitCloneDepth   = 1

	// Engine defaults
	DefaultEngineResolution = 400

	// Trace defaults
	DefaultTraceEnabled              = true
	DefaultTraceBackend              = "memory"
	DefaultTraceMemoryCapacity       = 4096
	DefaultTraceSQLitePath           = "data/traces.db"
	DefaultTraceSQLiteDriver         = "sqlite3"
	DefaultTraceSQLiteMaxOpenConns   = 10
	DefaultTraceSQLiteMaxIdleConns   = 5
	DefaultTraceSQLiteWALMode        = true
	DefaultTraceSQLiteBusyTimeout    = 5 * time.Second
	DefaultTraceRecorderAsyncBuffer  = 1000
	DefaultTraceRecorderWriteTimeout = 5 * time.Second
	DefaultTraceRecorderDropOnFull   = true
	DefaultTraceRetentionDays        = 30
	DefaultTraceRetentionSchedule    = "0 3 * * *"
	DefaultTraceRetentionMaxRecords  = int64(0)
	DefaultTraceQueryDefaultLimit    = 100
	DefaultTraceQueryMaxLimit        = 10000
	DefaultTraceQueryTimeout         = 30 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultLoggingRedactSecrets = true
	DefaultMetricsEnabled       = true
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "callisto"
	DefaultMetricsSubsystem     = "engine"
	DefaultTracingEnabled       = false
	DefaultTracingSampler       = "ratio"
	DefaultTracingSampleRatio   = 0.1
	DefaultTracingEndpoint      = "localhost:4317"
	DefaultTracingService       = "callisto"
	DefaultOTLPInsecure         = true
	DefaultOTLPTimeout          = 10 * time.Second
	DefaultHealthEnabled        = true
	DefaultHealthLivenessPath   = "/health"
	DefaultHealthReadinessPath  = "/ready"
	DefaultHealthVersionPath    = "/version"
	DefaultHealthCheckTimeout   = 5 * time.Second
)

// New returns a Config with every default applied, including the
// boolean fields that default to true. Use it as the base when
// building a configuration programmatically.
func New() *Config {
	cfg := &Config{}
	seedBoolDefaults(cfg)
	ApplyDefaults(cfg)
	return cfg
}

// seedBoolDefaults sets the boolean fields whose default is true.
// LoadConfig calls it before unmarshalling so a document that omits
// the field gets the default while an explicit false survives.
// ApplyDefaults cannot distinguish those two cases and leaves
// booleans alone.
func seedBoolDefaults(cfg *Config) {
	cfg.Rules.Git.Poll.Enabled = DefaultGitPollEnabled
	cfg.Trace.Enabled = DefaultTraceEnabled
	cfg.Trace.SQLite.WALMode = DefaultTraceSQLiteWALMode
	cfg.Trace.Recorder.DropOnFull = DefaultTraceRecorderDropOnFull
	cfg.Telemetry.Logging.RedactSecrets = DefaultLoggingRedactSecrets
	cfg.Telemetry.Tracing.OTLP.Insecure = DefaultOTLPInsecure
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Rule loading defaults
	if cfg.Rules.Mode == "" {
		cfg.Rules.Mode = DefaultRulesMode
	}
	if len(cfg.Rules.Paths) == 0 {
		cfg.Rules.Paths = []string{DefaultRulesPath}
	}
	if cfg.Rules.Debounce == 0 {
		cfg.Rules.Debounce = DefaultRulesDebounce
	}

	// Git defaults
	if cfg.Rules.Git.Branch == "" {
		cfg.Rules.Git.Branch = DefaultGitBranch
	}
	if cfg.Rules.Git.Auth.Type == "" {
		cfg.Rules.Git.Auth.Type = DefaultGitAuthType
	}
	if cfg.Rules.Git.Poll.Interval == 0 {
		cfg.Rules.Git.Poll.Interval = DefaultGitPollInterval
	}
	if cfg.Rules.Git.Poll.Timeout == 0 {
		cfg.Rules.Git.Poll.Timeout = DefaultGitPollTimeout
	}
	if cfg.Rules.Git.Clone.Depth == 0 {
		cfg.Rules.Git.Clone.Depth = DefaultGitCloneDepth
	}

	// Engine defaults
	if cfg.Engine.Resolution == 0 {
		cfg.Engine.Resolution = DefaultEngineResolution
	}
	if len(cfg.Engine.StageWidths) == 0 {
		cfg.Engine.StageWidths = []int{1280, 640, 320}
	}

	applyTraceDefaults(cfg)
	applyTelemetryDefaults(cfg)
}

// applyTraceDefaults applies default values to trace configuration.
func applyTraceDefaults(cfg *Config) {
	if cfg.Trace.Backend == "" {
		cfg.Trace.Backend = DefaultTraceBackend
	}
	if cfg.Trace.Memory.Capacity == 0 {
		cfg.Trace.Memory.Capacity = DefaultTraceMemoryCapacity
	}

	// SQLite defaults
	if cfg.Trace.SQLite.Path == "" {
		cfg.Trace.SQLite.Path = DefaultTraceSQLitePath
	}
	if cfg.Trace.SQLite.Driver == "" {
		cfg.Trace.SQLite.Driver = DefaultTraceSQLiteDriver
	}
	if cfg.Trace.SQLite.MaxOpenConns == 0 {
		cfg.Trace.SQLite.MaxOpenConns = DefaultTraceSQLiteMaxOpenConns
	}
	if cfg.Trace.SQLite.MaxIdleConns == 0 {
		cfg.Trace.SQLite.MaxIdleConns = DefaultTraceSQLiteMaxIdleConns
	}
	if cfg.Trace.SQLite.BusyTimeout == 0 {
		cfg.Trace.SQLite.BusyTimeout = DefaultTraceSQLiteBusyTimeout
	}

	// Recorder defaults
	if cfg.Trace.Recorder.AsyncBuffer == 0 {
		cfg.Trace.Recorder.AsyncBuffer = DefaultTraceRecorderAsyncBuffer
	}
	if cfg.Trace.Recorder.WriteTimeout == 0 {
		cfg.Trace.Recorder.WriteTimeout = DefaultTraceRecorderWriteTimeout
	}

	// Retention defaults
	if cfg.Trace.Retention.Days == 0 {
		cfg.Trace.Retention.Days = DefaultTraceRetentionDays
	}
	if cfg.Trace.Retention.PruneSchedule == "" {
		cfg.Trace.Retention.PruneSchedule = DefaultTraceRetentionSchedule
	}
	if cfg.Trace.Retention.MaxRecords == 0 {
		cfg.Trace.Retention.MaxRecords = DefaultTraceRetentionMaxRecords
	}

	// Query defaults
	if cfg.Trace.Query.DefaultLimit == 0 {
		cfg.Trace.Query.DefaultLimit = DefaultTraceQueryDefaultLimit
	}
	if cfg.Trace.Query.MaxLimit == 0 {
		cfg.Trace.Query.MaxLimit = DefaultTraceQueryMaxLimit
	}
	if cfg.Trace.Query.Timeout == 0 {
		cfg.Trace.Query.Timeout = DefaultTraceQueryTimeout
	}
}

// applyTelemetryDefaults applies default values to telemetry configuration.
func applyTelemetryDefaults(cfg *Config) {
	// Logging defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}

	// Metrics defaults
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}

	// Tracing defaults
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingService
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}

	// Health defaults
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultHealthLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultHealthReadinessPath
	}
	if cfg.Telemetry.Health.VersionPath == "" {
		cfg.Telemetry.Health.VersionPath = DefaultHealthVersionPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
