// Package metrics declares the Prometheus collectors for the sync layer.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RefreshCyclesTotal counts completed refresh cycles by outcome:
	// ok, error, offline.
	RefreshCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whalewatch_refresh_cycles_total",
			Help: "Completed refresh cycles by outcome.",
		},
		[]string{"result"},
	)

	// RefreshTicksSkipped counts scheduler ticks skipped because a cycle
	// was already in flight.
	RefreshTicksSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "whalewatch_refresh_ticks_skipped_total",
			Help: "Scheduler ticks skipped due to an in-flight refresh.",
		},
	)

	// UpstreamRequestDuration observes upstream call latency by method.
	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whalewatch_upstream_request_duration_seconds",
			Help:    "Upstream whale-tracker request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// UpstreamRetries counts retried upstream attempts.
	UpstreamRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "whalewatch_upstream_retries_total",
			Help: "Upstream requests retried after a transient failure.",
		},
	)

	// OfflineGauge is 1 while the last health probe failed.
	OfflineGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "whalewatch_upstream_offline",
			Help: "Whether the upstream is considered offline (1) or reachable (0).",
		},
	)

	// TrackedWallets reports the size of the canonical collection after
	// the most recent successful refresh.
	TrackedWallets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "whalewatch_tracked_wallets",
			Help: "Wallets in the canonical collection.",
		},
	)
)

// MustRegisterMetrics registers all collectors with the default registry.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		RefreshCyclesTotal,
		RefreshTicksSkipped,
		UpstreamRequestDuration,
		UpstreamRetries,
		OfflineGauge,
		TrackedWallets,
	)
}
