// internal/common/metrics/metrics.go
package metrics

import (
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
)

var (
	MatchResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_results_total",
			Help: "Match results by outcome status",
		},
		[]string{"status"},
	)

	MatchPercentage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_match_percentage",
			Help:    "Match percentage of every scored student/advisor pair",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	MatchEmptyPool = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_empty_pool_total",
			Help: "Students processed while no advisor had free capacity",
		},
	)

	AdvisorsAtCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matching_advisors_at_capacity",
			Help: "Advisors at or above capacity after the most recent matching run",
		},
	)

	AssignmentCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_assignment_commits_total",
			Help: "Persisted assignments by result (committed or conflict)",
		},
		[]string{"result"},
	)
)
