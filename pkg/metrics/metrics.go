package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// label values
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeDropped   = "dropped"
	OutcomeDuplicate = "duplicate"
)

var (
	// JobsProcessed counts consumed job messages by type and outcome.
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quotesync",
		Name:      "jobs_processed_total",
		Help:      "Job messages consumed, by job type and outcome.",
	}, []string{"job_type", "outcome"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quotesync",
		Name:      "job_duration_seconds",
		Help:      "Wall time of one job handler invocation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job_type"})

	// QuotesReconciled counts parent quote intents after commit.
	QuotesReconciled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quotesync",
		Name:      "quotes_reconciled_total",
		Help:      "Quote intents reconciled after commit, by outcome.",
	}, []string{"outcome"})

	CallbackDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quotesync",
		Name:      "callback_deliveries_total",
		Help:      "Callback POST attempts, by outcome.",
	}, []string{"outcome"})

	JobsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quotesync",
		Name:      "jobs_published_total",
		Help:      "Job descriptors published by the API server, by outcome.",
	}, []string{"outcome"})
)
