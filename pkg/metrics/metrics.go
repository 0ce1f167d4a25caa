// Package metrics holds the prometheus collectors exported by the daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bookswap"

var (
	ProposalsSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proposals_submitted_total",
		Help:      "Number of proposals appended to auctions, by type.",
	}, []string{"type"})

	AuctionsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auctions_resolved_total",
		Help:      "Number of auction transitions made by timeout or owner, by outcome.",
	}, []string{"outcome"})

	EscrowFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "escrow_failures_total",
		Help:      "Number of failed calls to the payment collaborator, by operation.",
	}, []string{"operation"})

	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_duration_seconds",
		Help:      "Duration of timeout sweeps.",
		Buckets:   prometheus.DefBuckets,
	})

	CompatibilityScores = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "compatibility_overall_score",
		Help:      "Distribution of computed compatibility scores.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Number of HTTP requests served, by route and status code.",
	}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(
		ProposalsSubmitted,
		AuctionsResolved,
		EscrowFailures,
		SweepDuration,
		CompatibilityScores,
		HTTPRequests,
	)
}
