package pkgmetric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "datasmith"

// Metrics holds the collectors recorded by the session workflow.
type Metrics struct {
	registry *prometheus.Registry

	uploads          *prometheus.CounterVec
	analysisRequests *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	parseDuration    *prometheus.HistogramVec
}

// New registers all collectors, plus the Go runtime and process collectors, on
// a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Files offered to upload intake, by outcome.",
		}, []string{"outcome"}),
		analysisRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_requests_total",
			Help:      "Remote analysis requests, by outcome.",
		}, []string{"outcome"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of remote analysis requests.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		parseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Wall time of local preview parsing, by outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.uploads,
		m.analysisRequests,
		m.analysisDuration,
		m.parseDuration,
	)

	return m
}

// ObserveUpload counts one intake decision.
func (m *Metrics) ObserveUpload(outcome string) {
	m.uploads.WithLabelValues(outcome).Inc()
}

// ObserveAnalysis counts one finished analysis request and its duration.
func (m *Metrics) ObserveAnalysis(outcome string, d time.Duration) {
	m.analysisRequests.WithLabelValues(outcome).Inc()
	m.analysisDuration.Observe(d.Seconds())
}

// ObserveParse records one finished preview parse.
func (m *Metrics) ObserveParse(outcome string, d time.Duration) {
	m.parseDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
