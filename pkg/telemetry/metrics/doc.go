// Package metrics provides Prometheus metrics collection for Callisto.
//
// # Overview
//
// The metrics package implements Prometheus metrics for monitoring
// rule evaluation, tensor operations, program reloads, and the trace
// store. Evaluation runs on the sampler's hot path, so collection is
// kept to pre-allocated counter and histogram vectors.
//
// # Metrics Categories
//
//   - Engine Metrics: Evaluation count, duration, operations, skips, reloads
//   - Store Metrics: Trace record writes, drops, and retention pruning
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(cfg, registry)
//
//	// Wire the engine metric set into the engine
//	engineCfg := engine.DefaultConfig().WithMetrics(collector.Engine())
//
//	// Record a reload from the manager
//	collector.RecordReload("ok")
//
// # Histogram Buckets
//
// Evaluation durations use exponential buckets from 1µs to 16ms;
// evaluations beyond that indicate an oversized rule program. Trace
// writes use 10µs to 160ms, covering both the memory and SQLite
// backends.
//
// # Prometheus Endpoint
//
// All metrics are exposed on the /metrics endpoint in standard
// Prometheus format:
//
//	# HELP callisto_engine_evaluations_total Total number of rule evaluations
//	# TYPE callisto_engine_evaluations_total counter
//	callisto_engine_evaluations_total{site="output",outcome="ok"} 1234
//
// # Cardinality
//
// Every label is drawn from a closed set: six invocation sites,
// seventeen operation kinds, two storage backends, and fixed status
// strings. Cardinality limiting is therefore unnecessary.
package metrics
