package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the collectors exposed on GET /v1/metrics. Each application
// gets its own registry so tests can build several without clashing on the
// default one.
type metrics struct {
	registry     *prometheus.Registry
	inFlight     prometheus.Gauge
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	seededMovies prometheus.Counter
	seedFailures prometheus.Counter
	issuedTokens prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "movies",
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "movies",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by status code and method.",
		}, []string{"code", "method"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "movies",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method"}),
		seededMovies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "movies",
			Name:      "seeded_movies_total",
			Help:      "Total number of movies created by seeding.",
		}),
		seedFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "movies",
			Name:      "seed_failures_total",
			Help:      "Total number of failed seed runs.",
		}),
		issuedTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "movies",
			Name:      "access_tokens_issued_total",
			Help:      "Total number of access tokens issued on login.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.inFlight,
		m.requests,
		m.duration,
		m.seededMovies,
		m.seedFailures,
		m.issuedTokens,
	)

	return m
}

// instrument records in-flight count, totals and latency of every request.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerInFlight(m.inFlight,
		promhttp.InstrumentHandlerDuration(m.duration,
			promhttp.InstrumentHandlerCounter(m.requests, next),
		),
	)
}

// handler serves the registry in the Prometheus text format.
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
