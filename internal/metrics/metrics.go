// Package metrics holds Prometheus instruments used across the API.  All
// collectors are registered with the global registry, so mounting
// promhttp.Handler() on /metrics is enough to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	StartupSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "startup_steps_total",
			Help: "Startup step results by step and status.",
		}, []string{"step", "status"})

	ComponentMounts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "component_mounts_total",
			Help: "Router module mount results by component and status.",
		}, []string{"component", "status"})

	SeedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seed_records_total",
			Help: "Rows inserted by the seed initializer, by table.",
		}, []string{"table"})

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"})

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"})
)

func init() {
	prometheus.MustRegister(
		StartupSteps,
		ComponentMounts,
		SeedRecords,
		HTTPRequests,
		HTTPDuration,
	)
}
