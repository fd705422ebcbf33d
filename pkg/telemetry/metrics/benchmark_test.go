package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Benchmark_EngineMetrics_RecordEvaluation benchmarks evaluation recording
func Benchmark_EngineMetrics_RecordEvaluation(b *testing.B) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	em := collector.Engine()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		em.RecordEvaluation("output", "ok", 50*time.Microsecond)
	}
}

// Benchmark_EngineMetrics_RecordEvaluation_Parallel benchmarks parallel recording
func Benchmark_EngineMetrics_RecordEvaluation_Parallel(b *testing.B) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	em := collector.Engine()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			em.RecordEvaluation("output", "ok", 50*time.Microsecond)
		}
	})
}

// Benchmark_EngineMetrics_RecordOperation benchmarks operation recording
func Benchmark_EngineMetrics_RecordOperation(b *testing.B) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	em := collector.Engine()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		em.RecordOperation("multiply")
	}
}

// Benchmark_StoreMetrics_RecordWrite benchmarks trace write recording
func Benchmark_StoreMetrics_RecordWrite(b *testing.B) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	sm := collector.Store()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sm.RecordWrite("sqlite", "ok", 200*time.Microsecond)
	}
}
