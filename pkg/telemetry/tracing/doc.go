// Package tracing exports rule evaluation spans over OpenTelemetry.
//
// A sampling run maps onto one trace: the host opens a root span for the
// run, and the engine opens a child span for every site evaluation under
// it. Spans carry the callisto.* attribute namespace (site, block, sigma,
// matched rules, applied operations) declared in this package, so the
// engine, the trace recorder and the CLI all tag spans with the same keys.
//
//	run.sample (24s)
//	├── rules.reload (3ms)
//	├── engine.evaluate input_4 (120µs)
//	├── engine.evaluate middle_0 (180µs)
//	├── engine.evaluate output_4 (150µs)
//	└── trace.flush (2ms)
//
// # Setup
//
//	tracer, err := tracing.New(&cfg.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "run.sample")
//	defer span.End()
//
// Spans export over OTLP gRPC to any OpenTelemetry collector:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: localhost:4317
//	    sampler: ratio
//	    sample_ratio: 0.1
//	    otlp:
//	      insecure: true
//	      timeout: 10s
//
// # Sampling
//
// The sampler decides per run, not per span: all samplers are parent
// based, so every evaluation span follows the root's decision. "always"
// suits rule development and interactive use, where a run is a handful of
// images. Batch rendering wants a ratio around 0.1, continuously running
// render farms 0.01 or lower. The trace recorder persists every
// evaluation locally regardless, so exported traces only need to cover
// enough runs for cross-service correlation.
//
// # Propagation
//
// Trace context crosses process boundaries as W3C Trace Context headers.
// HTTP surfaces use Extract and Inject; hosts picking context off job
// metadata use ExtractFromMap and InjectToMap. ParseTraceParent validates
// raw traceparent values when a carrier is assembled by hand.
//
// # Overhead
//
// Evaluations run on the sampling hot path. Disabled tracing hands out
// no-op spans, unsampled runs skip span recording entirely, and export is
// batched off the hot path.
package tracing
