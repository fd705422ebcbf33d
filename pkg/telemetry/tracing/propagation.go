package tracing

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Trace context crosses process boundaries as W3C Trace Context headers
// (traceparent and tracestate). A render job carries them in its metadata,
// the host extracts them before starting the run, and every evaluation span
// the engine opens then joins the job's trace:
//
//	ctx := tracing.ExtractFromMap(ctx, job.Metadata)
//	ctx, span := tracer.Start(ctx, "run.sample")
//
// HTTP surfaces use Extract and Inject with header carriers instead.

// Propagator returns the globally registered text map propagator. New
// installs a composite of TraceContext and Baggage; before that the global
// is an empty no-op composite.
func Propagator() propagation.TextMapPropagator {
	return otel.GetTextMapPropagator()
}

// Extract returns ctx extended with any trace context found in headers.
// With no traceparent present, ctx comes back unchanged.
func Extract(ctx context.Context, headers http.Header) context.Context {
	return Propagator().Extract(ctx, propagation.HeaderCarrier(headers))
}

// Inject serializes the trace context from ctx into headers as traceparent
// and tracestate, for outgoing HTTP requests.
func Inject(ctx context.Context, headers http.Header) {
	Propagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// ExtractFromMap reads trace context from a string map. Hosts use this to
// pick context off job metadata and other non-HTTP carriers.
func ExtractFromMap(ctx context.Context, carrier map[string]string) context.Context {
	return Propagator().Extract(ctx, propagation.MapCarrier(carrier))
}

// InjectToMap writes trace context into a string map, for handing to
// downstream jobs.
func InjectToMap(ctx context.Context, carrier map[string]string) {
	Propagator().Inject(ctx, propagation.MapCarrier(carrier))
}

// HTTPMiddleware extracts incoming trace context and reflects the resolved
// trace and span IDs as X-Trace-ID and X-Span-ID response headers, so a
// caller can correlate its response with an exported trace.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := Extract(r.Context(), r.Header)
		if sc := SpanContext(ctx); sc.IsValid() {
			w.Header().Set("X-Trace-ID", sc.TraceID().String())
			w.Header().Set("X-Span-ID", sc.SpanID().String())
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TraceParent is a parsed traceparent header value.
type TraceParent struct {
	Version string
	TraceID string
	SpanID  string
	Flags   byte
}

// Sampled reports whether the sampled bit of the flags field is set.
func (tp TraceParent) Sampled() bool {
	return tp.Flags&0x01 != 0
}

// ParseTraceParent splits and checks a traceparent value of the form
// version-traceid-spanid-flags, four hex fields of 2, 32, 16 and 2 digits.
// All-zero trace or span IDs mark an unset context and are rejected, as
// W3C Trace Context requires. Uppercase hex is tolerated.
func ParseTraceParent(s string) (TraceParent, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 4 {
		return TraceParent{}, fmt.Errorf("traceparent has %d fields, want 4", len(parts))
	}
	version, traceID, spanID, flags := parts[0], parts[1], parts[2], parts[3]
	if len(version) != 2 || len(traceID) != 32 || len(spanID) != 16 || len(flags) != 2 {
		return TraceParent{}, fmt.Errorf("traceparent field lengths %d-%d-%d-%d, want 2-32-16-2",
			len(version), len(traceID), len(spanID), len(flags))
	}
	for _, field := range [...]string{version, traceID, spanID} {
		if _, err := hex.DecodeString(field); err != nil {
			return TraceParent{}, fmt.Errorf("traceparent field %q is not hex", field)
		}
	}
	if strings.Trim(traceID, "0") == "" {
		return TraceParent{}, fmt.Errorf("traceparent trace ID is all zeros")
	}
	if strings.Trim(spanID, "0") == "" {
		return TraceParent{}, fmt.Errorf("traceparent span ID is all zeros")
	}
	f, err := strconv.ParseUint(flags, 16, 8)
	if err != nil {
		return TraceParent{}, fmt.Errorf("traceparent flags %q are not hex", flags)
	}
	return TraceParent{Version: version, TraceID: traceID, SpanID: spanID, Flags: byte(f)}, nil
}

// ValidateTraceParent reports whether s is a well-formed traceparent value.
func ValidateTraceParent(s string) bool {
	_, err := ParseTraceParent(s)
	return err == nil
}
