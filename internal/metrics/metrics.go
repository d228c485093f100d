// Package metrics exposes prometheus collectors for ingestion, questions
// and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pdfchat"

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Ingestions    *prometheus.CounterVec
	ChunksIndexed prometheus.Counter
	Questions     *prometheus.CounterVec
	AskDuration   *prometheus.HistogramVec
	HTTPRequests  *prometheus.CounterVec
}

// New registers the collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Ingestions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingestions_total",
				Help:      "Document ingestions by result.",
			},
			[]string{"result"},
		),
		ChunksIndexed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chunks_indexed_total",
				Help:      "Chunks written to the knowledge base.",
			},
		),
		Questions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "questions_total",
				Help:      "Questions by outcome.",
			},
			[]string{"outcome"},
		),
		AskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ask_duration_seconds",
				Help:      "Time to answer a question, retrieval and generation included.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status code.",
			},
			[]string{"method", "route", "status"},
		),
	}
}

// ObserveIngest records one ingestion.
func (m *Metrics) ObserveIngest(result string, chunks int) {
	m.Ingestions.WithLabelValues(result).Inc()
	if chunks > 0 {
		m.ChunksIndexed.Add(float64(chunks))
	}
}

// ObserveAsk records one question.
func (m *Metrics) ObserveAsk(outcome string, took time.Duration) {
	m.Questions.WithLabelValues(outcome).Inc()
	m.AskDuration.WithLabelValues(outcome).Observe(took.Seconds())
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
