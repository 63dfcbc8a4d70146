// internal/common/metrics/metrics.go
package metrics

import (
	"time"

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
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: prometheus.DefBuckets,
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

	FeatureChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_feature_checks_total",
			Help: "Feature access checks by tier, feature and result",
		},
		[]string{"tier", "feature", "result"},
	)

	ImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_rows_total",
			Help: "Import rows by validation outcome",
		},
		[]string{"outcome", "policy"},
	)
)

// ObserveJob records one finished job. An empty errorCode counts as success.
func ObserveJob(taskType, errorCode string, elapsed time.Duration) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}

func ObserveFeatureCheck(tier, feature string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	FeatureChecks.WithLabelValues(tier, feature, result).Inc()
}

func ObserveImportRows(policy string, accepted, rejected int) {
	ImportRows.WithLabelValues("accepted", policy).Add(float64(accepted))
	ImportRows.WithLabelValues("rejected", policy).Add(float64(rejected))
}
