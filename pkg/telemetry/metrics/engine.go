package metrics

import (
	"time"

	"latent-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics tracks rule engine evaluations.
//
// Metrics:
//   - callisto_engine_evaluations_total: Evaluations by site and outcome
//   - callisto_engine_evaluation_duration_seconds: Evaluation duration by site
//   - callisto_engine_operations_total: Operations applied by kind
//   - callisto_engine_skips_total: Evaluations skipped for unresolvable sigmas
//   - callisto_engine_reloads_total: Program reloads by status
type EngineMetrics struct {
	// Total evaluations by site and outcome ("ok", "skipped", "error").
	evaluationsTotal *prometheus.CounterVec

	// Evaluation duration histogram by site.
	evaluationDuration *prometheus.HistogramVec

	// Operations applied by kind, nested operations included.
	operationsTotal *prometheus.CounterVec

	// Evaluations skipped because the sigma fell outside the
	// resolvable range.
	skipsTotal *prometheus.CounterVec

	// Program reloads by status ("ok", "error").
	reloadsTotal *prometheus.CounterVec
}

// NewEngineMetrics creates and registers engine metrics with the
// provided registry.
func NewEngineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EngineMetrics {
	em := &EngineMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of rule evaluations",
			},
			[]string{"site", "outcome"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of rule evaluation in seconds",
				// Evaluations run on the sampling hot path (< 16ms).
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"site"},
		),

		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "operations_total",
				Help:      "Total number of tensor operations applied",
			},
			[]string{"kind"},
		),

		skipsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "skips_total",
				Help:      "Total number of evaluations skipped for unresolvable sigmas",
			},
			[]string{"site"},
		),

		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reloads_total",
				Help:      "Total number of rule program reloads",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		em.evaluationsTotal,
		em.evaluationDuration,
		em.operationsTotal,
		em.skipsTotal,
		em.reloadsTotal,
	)

	return em
}

// RecordEvaluation records one completed evaluation.
//
// Parameters:
//   - site: invocation site ("input", "output", "post_cfg", ...)
//   - outcome: "ok", "skipped" or "error"
//   - duration: time the evaluation took
func (em *EngineMetrics) RecordEvaluation(site, outcome string, duration time.Duration) {
	em.evaluationsTotal.WithLabelValues(site, outcome).Inc()
	em.evaluationDuration.WithLabelValues(site).Observe(duration.Seconds())
}

// RecordOperation records one applied tensor operation.
func (em *EngineMetrics) RecordOperation(kind string) {
	em.operationsTotal.WithLabelValues(kind).Inc()
}

// RecordSkip records an evaluation skipped because the sigma could
// not be resolved to a sampling percentage.
func (em *EngineMetrics) RecordSkip(site string) {
	em.skipsTotal.WithLabelValues(site).Inc()
}

// RecordReload records a rule program reload attempt.
func (em *EngineMetrics) RecordReload(status string) {
	em.reloadsTotal.WithLabelValues(status).Inc()
}
