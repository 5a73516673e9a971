// Package metrics registers the Prometheus metrics exported by the ticker
// backend. Import this package (via blank import) from the server entry
// point to register all metrics before the /metrics handler is mounted.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesServed counts served messages labelled by source
	// ("cache", "provider") and, for providers, the provider name.
	MessagesServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticker_messages_served_total",
			Help: "Total messages served, by source.",
		},
		[]string{"source", "provider"},
	)

	// ProviderRequests counts generation attempts labelled by provider and
	// outcome ("success", "error", "duplicate", "blocked").
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticker_provider_requests_total",
			Help: "Total provider generation attempts by outcome.",
		},
		[]string{"provider", "status"},
	)

	// ProviderLatency observes per-provider generation latency in seconds.
	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticker_provider_latency_seconds",
			Help:    "Provider generation latency in seconds.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	// FuzzyRejections counts candidate messages rejected as near-duplicates.
	FuzzyRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticker_fuzzy_rejections_total",
			Help: "Total candidate messages rejected as near-duplicates.",
		},
	)

	// CacheSize tracks the current number of cached messages.
	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticker_cache_size",
			Help: "Current number of cached messages.",
		},
	)

	// ProviderHealthy tracks per-provider health as a gauge: 1 healthy, 0 not.
	ProviderHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ticker_provider_healthy",
			Help: "Provider health per the last health check (1=healthy).",
		},
		[]string{"provider"},
	)

	// RateLimitRejections counts requests rejected by the rate-limit
	// middleware.
	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticker_rate_limit_rejections_total",
			Help: "Total requests rejected by rate limiting.",
		},
	)
)
