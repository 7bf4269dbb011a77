// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	NetworkBuildsTotal   *prometheus.CounterVec
	NetworkBuildDuration prometheus.Histogram
	NetworkCacheHits     prometheus.Counter
	NetworkCacheMisses   prometheus.Counter
	NetworkCacheEvicted  prometheus.Counter
	CachedNetworks       prometheus.Gauge
	SimulationRunsTotal  prometheus.Counter
	SimulationTicksTotal prometheus.Counter
	NewInfectionsPerTick prometheus.Histogram
	AnalysisLatency      *prometheus.HistogramVec
	AttendanceFactsTotal *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		NetworkBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_network_builds_total",
				Help: "Contact network constructions by status (ok, error).",
			},
			[]string{"status"},
		),
		NetworkBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "contact_network_build_duration_seconds",
				Help:    "Time spent building one day's sparse contact matrix.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		NetworkCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "network_cache_hits_total",
				Help: "Total number of contact-network cache hits.",
			},
		),
		NetworkCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "network_cache_misses_total",
				Help: "Total number of contact-network cache misses.",
			},
		),
		NetworkCacheEvicted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "network_cache_evictions_total",
				Help: "Total number of cached networks evicted by the LRU policy.",
			},
		),
		CachedNetworks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cached_networks",
				Help: "Number of sparse contact matrices currently cached.",
			},
		),
		SimulationRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "simulation_runs_total",
				Help: "Total simulation runs started.",
			},
		),
		SimulationTicksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "simulation_ticks_total",
				Help: "Total simulation ticks executed.",
			},
		),
		NewInfectionsPerTick: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "new_infections_per_tick",
				Help:    "Number of newly infected nodes per tick.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
			},
		),
		AnalysisLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "topology_analysis_duration_seconds",
				Help:    "Topology analysis latency by analysis kind.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"analysis"},
		),
		AttendanceFactsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attendance_facts_ingested_total",
				Help: "Attendance facts consumed from Kafka by status (ok, invalid, error).",
			},
			[]string{"status"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.NetworkBuildsTotal,
		m.NetworkBuildDuration,
		m.NetworkCacheHits,
		m.NetworkCacheMisses,
		m.NetworkCacheEvicted,
		m.CachedNetworks,
		m.SimulationRunsTotal,
		m.SimulationTicksTotal,
		m.NewInfectionsPerTick,
		m.AnalysisLatency,
		m.AttendanceFactsTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
