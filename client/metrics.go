package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "orma_client",
			Name:      "submissions_total",
			Help:      "Marks successfully appended by the submission controller.",
		},
	)

	submissionsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orma_client",
			Name:      "submissions_rejected_total",
			Help:      "Submissions rejected before or during the append.",
		},
		[]string{"reason"},
	)

	snapshotsAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orma_client",
			Name:      "snapshots_applied_total",
			Help:      "Full snapshots delivered to subscribers.",
		},
		[]string{"mode"},
	)
)
