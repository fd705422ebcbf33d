package engine

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"latent-hq/callisto/pkg/telemetry/metrics"
)

// Config controls engine construction.
type Config struct {
	// SigmaFromPercent maps a sampling percentage in [0, 1] to the
	// sigma the model assigns to it. The engine inverts it numerically
	// to resolve hook sigmas back to percentages. Without it every
	// sigma-bearing invocation is skipped; only the latent site
	// evaluates.
	SigmaFromPercent func(pct float64) float64

	// Resolution is the inversion table size. Percentages resolve to
	// multiples of 1/Resolution; the default of 400 keeps round-trip
	// error within a quarter percent.
	Resolution int

	// Schedule is the per-step sigma schedule, n+1 sigmas for n
	// steps. Optional; without it step conditions never match and the
	// noise operation fails.
	Schedule []float64

	// StageWidths maps channel counts to stages 1..len. The defaults
	// are the UNet feature widths 1280, 640, 320.
	StageWidths []int

	// NoiseSeed seeds the noise operation's random stream. Zero draws
	// a random seed at construction. Evaluations are deterministic
	// for a fixed seed and invocation order.
	NoiseSeed uint64

	// Logger receives engine logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics, Tracer and Recorder are optional observability hooks.
	Metrics  *metrics.EngineMetrics
	Tracer   trace.Tracer
	Recorder EvalRecorder
}

// DefaultConfig returns a configuration with sensible defaults. The
// sigma model and schedule stay unset; hosts supply them per sampling
// run.
func DefaultConfig() *Config {
	return &Config{
		Resolution:  400,
		StageWidths: []int{1280, 640, 320},
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Resolution <= 0 {
		return fmt.Errorf("%w: resolution must be positive, got %d", ErrInvalidConfig, c.Resolution)
	}
	if len(c.Schedule) == 1 {
		return fmt.Errorf("%w: schedule needs at least two sigmas", ErrInvalidConfig)
	}
	if len(c.StageWidths) == 0 {
		return fmt.Errorf("%w: stage widths cannot be empty", ErrInvalidConfig)
	}
	return nil
}

// WithSigmaModel sets the percent-to-sigma mapping and returns the
// config for chaining.
func (c *Config) WithSigmaModel(fn func(pct float64) float64) *Config {
	c.SigmaFromPercent = fn
	return c
}

// WithResolution sets the inversion table size and returns the config
// for chaining.
func (c *Config) WithResolution(resolution int) *Config {
	c.Resolution = resolution
	return c
}

// WithSchedule sets the per-step sigma schedule and returns the
// config for chaining.
func (c *Config) WithSchedule(sigmas []float64) *Config {
	c.Schedule = sigmas
	return c
}

// WithStageWidths sets the channel-count-to-stage mapping and returns
// the config for chaining.
func (c *Config) WithStageWidths(widths []int) *Config {
	c.StageWidths = widths
	return c
}

// WithNoiseSeed sets the noise seed and returns the config for
// chaining.
func (c *Config) WithNoiseSeed(seed uint64) *Config {
	c.NoiseSeed = seed
	return c
}

// WithLogger sets the logger and returns the config for chaining.
func (c *Config) WithLogger(logger *slog.Logger) *Config {
	c.Logger = logger
	return c
}

// WithMetrics sets the metric set and returns the config for
// chaining.
func (c *Config) WithMetrics(m *metrics.EngineMetrics) *Config {
	c.Metrics = m
	return c
}

// WithTracer sets the tracer and returns the config for chaining.
func (c *Config) WithTracer(tracer trace.Tracer) *Config {
	c.Tracer = tracer
	return c
}

// WithRecorder sets the evaluation recorder and returns the config
// for chaining.
func (c *Config) WithRecorder(r EvalRecorder) *Config {
	c.Recorder = r
	return c
}
