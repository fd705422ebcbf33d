package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"latent-hq/callisto/pkg/config"
	"latent-hq/callisto/pkg/telemetry/health"
	"latent-hq/callisto/pkg/telemetry/logging"
	"latent-hq/callisto/pkg/telemetry/metrics"
	"latent-hq/callisto/pkg/telemetry/tracing"
)

// Telemetry bundles the observability components behind a single handle.
// It owns their lifecycle: New initializes everything from configuration
// and Shutdown flushes and releases in reverse order.
type Telemetry struct {
	config    *config.TelemetryConfig
	logger    *logging.Logger
	collector *metrics.Collector
	tracer    *tracing.Tracer
	checker   *health.Checker

	version   string
	commit    string
	buildTime string
}

// New initializes all telemetry components from configuration.
//
// The build information is served by the version endpoint and attached
// to the tracer's resource. Component health checks are not registered
// here; the host process registers them once the components exist:
//
//	tel.Health().RegisterCheck(health.ComponentRules, manager.HealthCheck)
func New(cfg *config.TelemetryConfig, version, commit, buildTime string) (*Telemetry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("telemetry config is required")
	}

	logger, err := logging.New(logging.FromConfig(cfg.Logging))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	tracer, err := tracing.New(&cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	collector := metrics.NewCollector(&cfg.Metrics, nil)

	return &Telemetry{
		config:    cfg,
		logger:    logger,
		collector: collector,
		tracer:    tracer,
		checker:   health.NewFromConfig(&cfg.Health),
		version:   version,
		commit:    commit,
		buildTime: buildTime,
	}, nil
}

// Logger returns the structured logger.
func (t *Telemetry) Logger() *logging.Logger {
	return t.logger
}

// Slog returns the underlying slog logger, suitable for wiring into
// engine.Config and other components that take a *slog.Logger.
func (t *Telemetry) Slog() *slog.Logger {
	return t.logger.Slog()
}

// Metrics returns the metrics collector.
func (t *Telemetry) Metrics() *metrics.Collector {
	return t.collector
}

// Tracer returns the distributed tracer.
func (t *Telemetry) Tracer() *tracing.Tracer {
	return t.tracer
}

// Health returns the health checker.
func (t *Telemetry) Health() *health.Checker {
	return t.checker
}

// Shutdown flushes pending spans and releases all components. The tracer
// shuts down first so export failures can still be logged.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var firstErr error

	if err := t.tracer.Shutdown(ctx); err != nil {
		t.logger.Error("tracer shutdown failed", "error", err)
		firstErr = fmt.Errorf("tracer shutdown: %w", err)
	}

	if err := t.logger.Shutdown(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("logger shutdown: %w", err)
	}

	return firstErr
}
