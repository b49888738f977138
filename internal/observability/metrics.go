// Package observability provides prometheus metrics, tracing helpers and the
// formatted batch output used by the CLI.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "candidate_intel"

// Metrics holds the pipeline's collectors. A nil *Metrics records nothing.
type Metrics struct {
	llmCalls      *prometheus.CounterVec
	llmDuration   *prometheus.HistogramVec
	llmRetries    *prometheus.CounterVec
	documents     *prometheus.CounterVec
	degraded      *prometheus.CounterVec
	batchDuration prometheus.Histogram
}

// NewMetrics registers the collectors with reg. The default registry is never used.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		llmCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_calls_total",
				Help:      "Total number of calls to the text-understanding service",
			},
			[]string{"operation", "outcome"},
		),
		llmDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_call_duration_seconds",
				Help:      "Duration of calls to the text-understanding service in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"operation"},
		),
		llmRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_retries_total",
				Help:      "Total number of rate-limited calls retried",
			},
			[]string{"operation"},
		),
		documents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_total",
				Help:      "Total number of résumés processed by final status",
			},
			[]string{"status"},
		),
		degraded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degraded_total",
				Help:      "Total number of degraded results by component",
			},
			[]string{"component"},
		),
		batchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Duration of batch processing in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
	}
}

// ObserveCall records one service call. It implements llm.Recorder.
func (m *Metrics) ObserveCall(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(operation, outcome).Inc()
	m.llmDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveRetry records one retried call. It implements llm.Recorder.
func (m *Metrics) ObserveRetry(operation string) {
	if m == nil {
		return
	}
	m.llmRetries.WithLabelValues(operation).Inc()
}

// ObserveDocument counts a finished document by status
func (m *Metrics) ObserveDocument(status string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(status).Inc()
}

// ObserveDegraded counts a degraded component result
func (m *Metrics) ObserveDegraded(component string) {
	if m == nil {
		return
	}
	m.degraded.WithLabelValues(component).Inc()
}

// ObserveBatch records the wall time of a batch
func (m *Metrics) ObserveBatch(duration time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(duration.Seconds())
}
