// Package metrics exports the InfoBox Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "infobox"

// Sanitize outcomes.
const (
	OutcomeClean    = "clean"
	OutcomeRejected = "rejected"
)

// Metrics holds all InfoBox Prometheus metrics. A nil *Metrics records
// nothing.
type Metrics struct {
	// Search metrics
	SearchRequests  *prometheus.CounterVec
	SearchFailures  prometheus.Counter
	SearchDuration  prometheus.Histogram
	SuggestRequests prometheus.Counter

	// Sanitizer metrics
	SanitizeTotal    *prometheus.CounterVec
	SanitizeDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers the metrics on a fresh registry, together with the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the metrics on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{gatherer: g}
	initSearchMetrics(factory, m)
	initSanitizeMetrics(factory, m)
	return m
}

func initSearchMetrics(factory promauto.Factory, m *Metrics) {
	m.SearchRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_requests_total",
		Help:      "Total search requests by effective sort key",
	}, []string{"sort"})

	m.SearchFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_failures_total",
		Help:      "Searches answered with an empty result because the repository failed",
	})

	m.SearchDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_duration_seconds",
		Help:      "Time to count and fetch one page of results",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	m.SuggestRequests = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "suggest_requests_total",
		Help:      "Total title suggestion lookups",
	})
}

func initSanitizeMetrics(factory promauto.Factory, m *Metrics) {
	m.SanitizeTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sanitize_total",
		Help:      "Sanitizer runs by outcome (clean, rejected)",
	}, []string{"outcome"})

	m.SanitizeDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sanitize_duration_seconds",
		Help:      "Time to sanitize one HTML body",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})
}

// RecordSearch counts one search.
func (m *Metrics) RecordSearch(sort string, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.SearchRequests.WithLabelValues(sort).Inc()
	m.SearchDuration.Observe(d.Seconds())
	if failed {
		m.SearchFailures.Inc()
	}
}

// RecordSuggest counts one suggestion lookup.
func (m *Metrics) RecordSuggest() {
	if m == nil {
		return
	}
	m.SuggestRequests.Inc()
}

// RecordSanitize counts one sanitizer run.
func (m *Metrics) RecordSanitize(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SanitizeTotal.WithLabelValues(outcome).Inc()
	m.SanitizeDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
