// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolve result labels
const (
	ResultCache      = "cache"
	ResultCandidate  = "candidate"
	ResultUnverified = "unverified"
	ResultFallback   = "fallback"
	ResultFailed     = "failed"
)

var (
	// Registry rejects duplicate registrations, so Init is guarded.
	once sync.Once

	// HTTPRequestsTotal counts finished requests by route template.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// ProbesTotal counts candidate probes by outcome (accepted, unverified, rejected, timeout, error).
	ProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_probes_total",
			Help: "Stream link probes by outcome.",
		},
		[]string{"outcome"},
	)

	// ResolvesTotal counts Resolve calls by how the answer was produced.
	ResolvesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_resolves_total",
			Help: "Stream link resolutions by result.",
		},
		[]string{"result"},
	)

	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Catalog upstream requests by source (cache, network, error).",
		},
		[]string{"source"},
	)
)

// Init registers all collectors with the default registry.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			ProbesTotal,
			ResolvesTotal,
			UpstreamRequestsTotal,
		)
	})
}
