package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics tracks the bulk ingestion and enrichment pipeline.
type PipelineMetrics struct {
	registry *prometheus.Registry

	uploadsTotal     *prometheus.CounterVec
	enrichTotal      *prometheus.CounterVec
	enrichDuration   *prometheus.HistogramVec
	batchesInFlight  prometheus.Gauge
	batchDuration    prometheus.Histogram
	batchSize        prometheus.Histogram
	httpRequestTotal *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func NewPipelineMetrics() *PipelineMetrics {
	registry := prometheus.NewRegistry()

	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docvault",
			Subsystem: "ingest",
			Name:      "uploads_total",
			Help:      "Total ingested files by outcome.",
		},
		[]string{"outcome"},
	)
	enrichTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docvault",
			Subsystem: "enrich",
			Name:      "documents_total",
			Help:      "Total enrichment attempts by outcome.",
		},
		[]string{"outcome"},
	)
	enrichDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docvault",
			Subsystem: "enrich",
			Name:      "document_duration_seconds",
			Help:      "Per-document enrichment duration by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
	batchesInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docvault",
			Subsystem: "enrich",
			Name:      "batches_in_flight",
			Help:      "Number of batch enrichment workers currently running.",
		},
	)
	batchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docvault",
			Subsystem: "enrich",
			Name:      "batch_duration_seconds",
			Help:      "Whole-batch enrichment duration.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)
	batchSize := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docvault",
			Subsystem: "ingest",
			Name:      "batch_size_files",
			Help:      "Files per bulk upload batch.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)
	httpRequestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docvault",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern and status class.",
		},
		[]string{"route", "status"},
	)
	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docvault",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration by route pattern.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	registry.MustRegister(
		uploadsTotal, enrichTotal, enrichDuration,
		batchesInFlight, batchDuration, batchSize,
		httpRequestTotal, httpDuration,
	)

	return &PipelineMetrics{
		registry:         registry,
		uploadsTotal:     uploadsTotal,
		enrichTotal:      enrichTotal,
		enrichDuration:   enrichDuration,
		batchesInFlight:  batchesInFlight,
		batchDuration:    batchDuration,
		batchSize:        batchSize,
		httpRequestTotal: httpRequestTotal,
		httpDuration:     httpDuration,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) ObserveUpload(err error) {
	m.uploadsTotal.WithLabelValues(outcome(err)).Inc()
}

func (m *PipelineMetrics) ObserveBatchStart(files int) {
	m.batchSize.Observe(float64(files))
	m.batchesInFlight.Inc()
}

func (m *PipelineMetrics) ObserveBatchEnd(duration time.Duration) {
	m.batchesInFlight.Dec()
	m.batchDuration.Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveEnrichment(duration time.Duration, err error) {
	o := outcome(err)
	m.enrichTotal.WithLabelValues(o).Inc()
	m.enrichDuration.WithLabelValues(o).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveHTTP(route string, status int, duration time.Duration) {
	m.httpRequestTotal.WithLabelValues(route, statusClass(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
