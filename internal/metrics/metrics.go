package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one process. Each instance owns its own
// registry so tests can create as many as they like.
type Metrics struct {
	registry       *prometheus.Registry
	documents      *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
	chunks         prometheus.Histogram
	decodeFailures *prometheus.CounterVec
	cacheHits      prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvparse",
			Name:      "documents_total",
			Help:      "Documents processed, by final status.",
		}, []string{"status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cvparse",
			Name:      "llm_request_duration_seconds",
			Help:      "Latency of LLM completion calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60, 120},
		}, []string{"model", "outcome"}),
		chunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cvparse",
			Name:      "chunks_per_document",
			Help:      "Number of chunks produced per document.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		decodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvparse",
			Name:      "decode_failures_total",
			Help:      "Model replies that could not be decoded into a record.",
		}, []string{"model"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cvparse",
			Name:      "result_cache_hits_total",
			Help:      "Requests answered from the result store.",
		}),
	}
	m.registry.MustRegister(
		m.documents,
		m.llmLatency,
		m.chunks,
		m.decodeFailures,
		m.cacheHits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) DocumentDone(status string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(status).Inc()
}

// LLMCall records one completion. outcome is "ok" or "error".
func (m *Metrics) LLMCall(model, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(model, outcome).Observe(d.Seconds())
}

func (m *Metrics) Chunks(n int) {
	if m == nil {
		return
	}
	m.chunks.Observe(float64(n))
}

func (m *Metrics) DecodeFailed(model string) {
	if m == nil {
		return
	}
	m.decodeFailures.WithLabelValues(model).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}
