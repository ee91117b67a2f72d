package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	PunchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdks_punches_total",
			Help: "Punch attempts by type, source and outcome",
		},
		[]string{"type", "source", "result"},
	)

	ChallengesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdks_challenges_total",
			Help: "Kiosk challenges issued and redeemed, by outcome",
		},
		[]string{"result"},
	)

	AggregationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdks_aggregation_runs_total",
			Help: "Daily aggregation runs by outcome",
		},
		[]string{"result"},
	)

	AggregatedSessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pdks_aggregated_sessions_total",
			Help: "Sessions rebuilt by the daily aggregator",
		},
	)

	AggregationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdks_aggregation_duration_seconds",
			Help:    "Duration of daily aggregation runs",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)

var once sync.Once

// Init registers every collector with the default registry. Safe to call
// more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			PunchesTotal,
			ChallengesTotal,
			AggregationRunsTotal,
			AggregatedSessionsTotal,
			AggregationDuration,
		)
	})
}
