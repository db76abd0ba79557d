// internal/common/metrics/metrics.go
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	StageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stage_transitions_total",
			Help: "Stage transition attempts by source, target and outcome",
		},
		[]string{"from", "to", "outcome"},
	)

	ComplianceEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_evaluations_total",
			Help: "Compliance evaluations by processable verdict",
		},
		[]string{"processable"},
	)

	WorkQueueTasksGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "work_queue_tasks_generated_total",
			Help: "Work queue tasks generated by priority",
		},
		[]string{"priority"},
	)

	SystemAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "system_alerts_total",
			Help: "System alerts raised by category",
		},
		[]string{"category"},
	)
)

// Transition outcomes.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeForced   = "forced"
	OutcomeRollback = "rollback"
	OutcomeNoop     = "noop"
)

func RecordTransition(from, to, outcome string) {
	StageTransitions.WithLabelValues(from, to, outcome).Inc()
}

func RecordEvaluation(processable bool) {
	ComplianceEvaluations.WithLabelValues(strconv.FormatBool(processable)).Inc()
}
