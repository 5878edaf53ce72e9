package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_jobs_submitted_total",
			Help: "Total number of generation jobs accepted for processing",
		},
	)

	JobsFinalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_jobs_finalized_total",
			Help: "Total number of jobs moved to a terminal state",
		},
		[]string{"status"}, // completed, failed
	)

	CreditsDebited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_credits_debited_total",
			Help: "Total credits debited for accepted jobs",
		},
	)

	ReconcilePolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_reconcile_polls_total",
			Help: "Total provider status checks performed by reconciliation",
		},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studio_provider_request_duration_seconds",
			Help:    "Provider API round-trip duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"operation"}, // create, status
	)
)
