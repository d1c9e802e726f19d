// Package metrics declares the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SwipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_swipes_total",
			Help: "Swipes recorded, by direction and outcome",
		},
		[]string{"direction", "outcome"},
	)

	MatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_matches_total",
			Help: "Mutual matches created",
		},
	)

	EntitlementRefusals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_refusals_total",
			Help: "Gated actions refused because the daily limit was reached",
		},
		[]string{"kind"},
	)

	UsageConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_usage_consumed_total",
			Help: "Gated actions consumed, by kind",
		},
		[]string{"kind"},
	)

	CompatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_compatibility_score",
			Help:    "Distribution of compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ScoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "discovery_scoring_duration_seconds",
			Help: "AI scoring latency",
		},
		[]string{"outcome"},
	)

	QueueSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_queue_size",
			Help:    "Candidates in a freshly built discovery queue",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 40, 50},
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "discovery_active_sessions",
			Help: "Discovery sessions held in memory",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request latency",
		},
		[]string{"method", "route", "status"},
	)
)
