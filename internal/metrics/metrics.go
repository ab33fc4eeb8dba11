// Package metrics exposes poll, run and gateway counters on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docwatch"

type Metrics struct {
	registry *prometheus.Registry

	pollAttempts    *prometheus.CounterVec
	pollLatency     *prometheus.HistogramVec
	runsStarted     prometheus.Counter
	runsFinished    *prometheus.CounterVec
	runAttempts     prometheus.Histogram
	runsActive      prometheus.Gauge
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	pollAttempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "attempts_total",
			Help:      "Status fetches by outcome.",
		},
		[]string{"outcome"},
	)
	pollLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "fetch_duration_seconds",
			Help:      "Status fetch latency in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
	runsStarted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "started_total",
			Help:      "Total polling runs started.",
		},
	)
	runsFinished := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "finished_total",
			Help:      "Total finished runs by final status.",
		},
		[]string{"status"},
	)
	runAttempts := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "attempts",
			Help:      "Polls needed per finished run.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 40, 60},
		},
	)
	runsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "active",
			Help:      "Runs currently polling.",
		},
	)
	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(
		pollAttempts,
		pollLatency,
		runsStarted,
		runsFinished,
		runAttempts,
		runsActive,
		requestTotal,
		requestDuration,
	)

	return &Metrics{
		registry:        registry,
		pollAttempts:    pollAttempts,
		pollLatency:     pollLatency,
		runsStarted:     runsStarted,
		runsFinished:    runsFinished,
		runAttempts:     runAttempts,
		runsActive:      runsActive,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAttempt satisfies poller.Observer.
func (m *Metrics) ObserveAttempt(outcome string, latency time.Duration) {
	m.pollAttempts.WithLabelValues(outcome).Inc()
	m.pollLatency.WithLabelValues(outcome).Observe(latency.Seconds())
}

func (m *Metrics) RunStarted() {
	m.runsStarted.Inc()
	m.runsActive.Inc()
}

// RunFinished records a finished run. status is the run status, "canceled" or "failed".
func (m *Metrics) RunFinished(status string, attempts int) {
	m.runsActive.Dec()
	m.runsFinished.WithLabelValues(status).Inc()
	if attempts > 0 {
		m.runAttempts.Observe(float64(attempts))
	}
}

// ObserveRequest records one served HTTP request. path should be the route template.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.requestTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
