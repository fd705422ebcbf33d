package metrics

import (
	"time"

	"latent-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks the trace store: asynchronous record writes,
// drops under backpressure, and retention pruning.
//
// Metrics:
//   - callisto_engine_trace_writes_total: Record writes by backend and status
//   - callisto_engine_trace_write_duration_seconds: Write duration by backend
//   - callisto_engine_trace_dropped_total: Records dropped because the queue was full
//   - callisto_engine_trace_pruned_total: Records removed by retention pruning
type StoreMetrics struct {
	writesTotal   *prometheus.CounterVec
	writeDuration *prometheus.HistogramVec
	droppedTotal  prometheus.Counter
	prunedTotal   prometheus.Counter
}

// NewStoreMetrics creates and registers trace store metrics with the
// provided registry.
func NewStoreMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StoreMetrics {
	sm := &StoreMetrics{
		writesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "trace_writes_total",
				Help:      "Total number of trace record writes",
			},
			[]string{"backend", "status"},
		),

		writeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "trace_write_duration_seconds",
				Help:      "Duration of trace record writes in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 15), // 10µs to 160ms
			},
			[]string{"backend"},
		),

		droppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "trace_dropped_total",
				Help:      "Total number of trace records dropped because the queue was full",
			},
		),

		prunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "trace_pruned_total",
				Help:      "Total number of trace records removed by retention pruning",
			},
		),
	}

	registry.MustRegister(
		sm.writesTotal,
		sm.writeDuration,
		sm.droppedTotal,
		sm.prunedTotal,
	)

	return sm
}

// RecordWrite records one trace record write.
//
// Parameters:
//   - backend: storage backend name ("memory", "sqlite")
//   - status: "ok" or "error"
//   - duration: time the write took
func (sm *StoreMetrics) RecordWrite(backend, status string, duration time.Duration) {
	sm.writesTotal.WithLabelValues(backend, status).Inc()
	sm.writeDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordDrop records a trace record dropped under backpressure.
func (sm *StoreMetrics) RecordDrop() {
	sm.droppedTotal.Inc()
}

// RecordPruned records records removed by retention pruning.
func (sm *StoreMetrics) RecordPruned(count int) {
	sm.prunedTotal.Add(float64(count))
}
