package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. Each
// instance owns its registry.
type Metrics struct {
	registry          *prometheus.Registry
	Generations       *prometheus.CounterVec
	UpstreamErrors    *prometheus.CounterVec
	CompletionLatency *prometheus.HistogramVec
	Tokens            *prometheus.CounterVec
	FeedbackRecords   prometheus.Gauge
	SliceRecords      prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generations by stored slot, mode and outcome.",
		}, []string{"kind", "mode", "outcome"}),
		UpstreamErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Completion provider failures by provider.",
		}, []string{"provider"}),
		CompletionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_latency_seconds",
			Help:      "Latency of completion requests.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"kind"}),
		Tokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Tokens reported by the provider, by type.",
		}, []string{"type"}),
		FeedbackRecords: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feedback_records",
			Help:      "Number of records in the loaded feedback table.",
		}),
		SliceRecords: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "slice_records",
			Help:      "Number of reviews sent per generation.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2000, 5000},
		}),
	}
}

func (m *Metrics) ObserveCompletion(kind string, d time.Duration) {
	m.CompletionLatency.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) AddTokens(prompt, completion int) {
	m.Tokens.WithLabelValues("prompt").Add(float64(prompt))
	m.Tokens.WithLabelValues("completion").Add(float64(completion))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
