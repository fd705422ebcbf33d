package tracing

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span Attribute Helpers
//
// These functions provide a convenient way to set common attributes on spans.
// They ensure consistent attribute naming across the codebase: the engine,
// the trace recorder and the CLI all tag spans with the same keys.
//
// Custom attribute keys use the "callisto.*" namespace:
//   - callisto.site: patch site name (input_4, middle_0, ...)
//   - callisto.sigma: noise level at the evaluation
//   - callisto.rule: rule name
//   - callisto.matched_rules / callisto.ops_applied: evaluation results

// Common attribute keys used throughout the system
const (
	// Evaluation attributes
	AttrSite    = "callisto.site"
	AttrBlock   = "callisto.block"
	AttrStage   = "callisto.stage"
	AttrSigma   = "callisto.sigma"
	AttrStep    = "callisto.step"
	AttrPercent = "callisto.percent"

	// Result attributes
	AttrSkipped      = "callisto.skipped"
	AttrMatchedRules = "callisto.matched_rules"
	AttrOpsApplied   = "callisto.ops_applied"

	// Rule attributes
	AttrRule     = "callisto.rule"
	AttrDocument = "callisto.document"

	// Run attributes
	AttrRunID = "callisto.run_id"

	// Storage attributes
	AttrBackend = "callisto.storage.backend"

	// Error attributes
	AttrErrorType    = "callisto.error.type"
	AttrErrorMessage = "error.message"

	// Performance attributes
	AttrDuration = "callisto.duration_ms"
)

// SetEvalAttributes sets evaluation-site attributes on a span.
//
// Example:
//
//	SetEvalAttributes(span, "output_4", 4, 7.25)
func SetEvalAttributes(span trace.Span, site string, block int, sigma float64) {
	span.SetAttributes(
		attribute.String(AttrSite, site),
		attribute.Int(AttrBlock, block),
		attribute.Float64(AttrSigma, sigma),
	)
}

// SetStepAttributes sets sampling progress attributes on a span.
//
// Example:
//
//	SetStepAttributes(span, 7, 0.35)
func SetStepAttributes(span trace.Span, step int, percent float64) {
	span.SetAttributes(
		attribute.Int(AttrStep, step),
		attribute.Float64(AttrPercent, percent),
	)
}

// SetResultAttributes sets evaluation result attributes on a span.
//
// Example:
//
//	SetResultAttributes(span, false, 2, 5)
func SetResultAttributes(span trace.Span, skipped bool, matchedRules, opsApplied int) {
	span.SetAttributes(
		attribute.Bool(AttrSkipped, skipped),
		attribute.Int(AttrMatchedRules, matchedRules),
		attribute.Int(AttrOpsApplied, opsApplied),
	)
}

// SetRuleAttributes sets rule provenance attributes on a span.
// Empty values are omitted.
//
// Example:
//
//	SetRuleAttributes(span, "sharpen-mid", "rules/detail.yaml")
func SetRuleAttributes(span trace.Span, rule, document string) {
	attrs := make([]attribute.KeyValue, 0, 2)
	if rule != "" {
		attrs = append(attrs, attribute.String(AttrRule, rule))
	}
	if document != "" {
		attrs = append(attrs, attribute.String(AttrDocument, document))
	}
	span.SetAttributes(attrs...)
}

// SetRunAttribute sets the sampling run identifier on a span.
//
// Example:
//
//	SetRunAttribute(span, "f81d4fae")
func SetRunAttribute(span trace.Span, runID string) {
	if runID != "" {
		span.SetAttributes(attribute.String(AttrRunID, runID))
	}
}

// SetBackendAttribute sets the storage backend name on a span.
//
// Example:
//
//	SetBackendAttribute(span, "sqlite")
func SetBackendAttribute(span trace.Span, backend string) {
	span.SetAttributes(attribute.String(AttrBackend, backend))
}

// SetErrorAttributes sets error-related attributes on a span.
// This also records the error using span.RecordError() and sets the span status.
//
// Example:
//
//	SetErrorAttributes(span, err, "parse")
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	// Record error and set status
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetDurationAttribute sets the duration attribute on a span.
// Duration is recorded in milliseconds.
//
// Example:
//
//	start := time.Now()
//	// ... do work ...
//	SetDurationAttribute(span, time.Since(start).Milliseconds())
func SetDurationAttribute(span trace.Span, durationMs int64) {
	span.SetAttributes(attribute.Int64(AttrDuration, durationMs))
}

// AddEvent adds a named event to the span with optional attributes.
// Events represent interesting points in the span's lifetime.
//
// Example:
//
//	AddEvent(span, "rule_matched",
//	    attribute.String(AttrRule, "sharpen-mid"),
//	    attribute.Int(AttrStep, 7),
//	)
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// AttributeBuilder provides a fluent interface for building span attributes.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates a new attribute builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 10),
	}
}

// WithSite adds site and block attributes.
func (ab *AttributeBuilder) WithSite(site string, block int) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrSite, site),
		attribute.Int(AttrBlock, block),
	)
	return ab
}

// WithStage adds the stage attribute.
func (ab *AttributeBuilder) WithStage(stage int) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.Int(AttrStage, stage))
	return ab
}

// WithProgress adds step, percent and sigma attributes.
func (ab *AttributeBuilder) WithProgress(step int, percent, sigma float64) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.Int(AttrStep, step),
		attribute.Float64(AttrPercent, percent),
		attribute.Float64(AttrSigma, sigma),
	)
	return ab
}

// WithRule adds rule provenance attributes.
func (ab *AttributeBuilder) WithRule(rule, document string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrRule, rule))
	if document != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrDocument, document))
	}
	return ab
}

// WithRun adds the run identifier attribute.
func (ab *AttributeBuilder) WithRun(runID string) *AttributeBuilder {
	if runID != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrRunID, runID))
	}
	return ab
}

// WithResult adds evaluation result attributes.
func (ab *AttributeBuilder) WithResult(skipped bool, matchedRules, opsApplied int) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.Bool(AttrSkipped, skipped),
		attribute.Int(AttrMatchedRules, matchedRules),
		attribute.Int(AttrOpsApplied, opsApplied),
	)
	return ab
}

// WithCustom adds a custom attribute.
func (ab *AttributeBuilder) WithCustom(key string, value interface{}) *AttributeBuilder {
	switch v := value.(type) {
	case string:
		ab.attrs = append(ab.attrs, attribute.String(key, v))
	case int:
		ab.attrs = append(ab.attrs, attribute.Int(key, v))
	case int64:
		ab.attrs = append(ab.attrs, attribute.Int64(key, v))
	case float64:
		ab.attrs = append(ab.attrs, attribute.Float64(key, v))
	case bool:
		ab.attrs = append(ab.attrs, attribute.Bool(key, v))
	default:
		// Fall back to string representation
		ab.attrs = append(ab.attrs, attribute.String(key, fmt.Sprintf("%v", v)))
	}
	return ab
}

// Build returns the built attributes as a trace.SpanStartOption.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Apply applies the attributes to a span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}

// Attributes returns the raw attribute slice.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}
