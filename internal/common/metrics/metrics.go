// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkflowsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "workflows_accepted_total",
			Help: "Total number of accepted generation requests",
		},
	)

	WorkflowsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflows_rejected_total",
			Help: "Total number of rejected generation requests",
		},
		[]string{"reason"},
	)

	WorkflowsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflows_completed_total",
			Help: "Total number of workflows reaching a terminal state",
		},
		[]string{"state"},
	)

	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_stage_failures_total",
			Help: "Total number of stage failures, including retried attempts",
		},
		[]string{"stage", "error_code"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "workflow_stage_duration_seconds",
			Help: "Duration of workflow stages in seconds",
		},
		[]string{"stage"},
	)

	WorkflowsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "workflows_active",
			Help: "Number of workflows currently in flight",
		},
	)
)
