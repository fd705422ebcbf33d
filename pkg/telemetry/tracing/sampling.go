package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Sampler strategy names accepted by telemetry.tracing.sampler.
const (
	SamplerAlways = "always"
	SamplerNever  = "never"
	SamplerRatio  = "ratio"
)

// createSampler maps a strategy name to an SDK sampler.
//
// Every strategy is wrapped in ParentBased: a host opens one root span per
// sampling run and the engine opens per-evaluation children under it, so
// the decision made at the root covers the whole run. A 30-step run over a
// dozen hooked sites is several hundred spans, all kept or all dropped
// together.
//
// "always" records every run and suits rule development. "ratio" keeps the
// given fraction, decided by trace ID hash so the decision stays consistent
// across services sharing a trace. "never" records nothing while leaving
// span contexts valid for propagation.
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	var root sdktrace.Sampler
	switch strategy {
	case SamplerAlways:
		root = sdktrace.AlwaysSample()
	case SamplerNever:
		root = sdktrace.NeverSample()
	case SamplerRatio:
		if ratio < 0.0 || ratio > 1.0 {
			return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
		}
		root = sdktrace.TraceIDRatioBased(ratio)
	default:
		return nil, fmt.Errorf("unknown sampler strategy: %s (valid: always, never, ratio)", strategy)
	}
	return sdktrace.ParentBased(root), nil
}
