package metrics

import (
	"time"

	"latent-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the orchestrator for all Prometheus metrics in
// Callisto. It manages metric registration and provides a unified
// recording interface for the engine and the trace store.
//
// Every label set is a closed enumeration (sites, operation kinds,
// backends, statuses), so cardinality stays bounded without limits.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Engine metrics
	engineMetrics *EngineMetrics

	// Trace store metrics
	storeMetrics *StoreMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "callisto",
//		Subsystem: "engine",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = "callisto"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "engine"
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	// Initialize metric subsystems
	c.engineMetrics = NewEngineMetrics(cfg, registry)
	c.storeMetrics = NewStoreMetrics(cfg, registry)

	return c
}

// Engine returns the engine metric set, suitable for wiring into an
// engine.Config. Returns nil when metrics are disabled so callers can
// pass it through unconditionally.
func (c *Collector) Engine() *EngineMetrics {
	if !c.config.Enabled {
		return nil
	}
	return c.engineMetrics
}

// Store returns the trace store metric set, nil when disabled.
func (c *Collector) Store() *StoreMetrics {
	if !c.config.Enabled {
		return nil
	}
	return c.storeMetrics
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordEvaluation records one completed rule evaluation.
func (c *Collector) RecordEvaluation(site, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.engineMetrics.RecordEvaluation(site, outcome, duration)
}

// RecordReload records a rule program reload attempt.
func (c *Collector) RecordReload(status string) {
	if !c.config.Enabled {
		return
	}
	c.engineMetrics.RecordReload(status)
}

// RecordTraceWrite records one trace record write.
func (c *Collector) RecordTraceWrite(backend, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.storeMetrics.RecordWrite(backend, status, duration)
}
