package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeCommitted        = "committed"
	OutcomeValidationFailed = "validation_failed"
	OutcomePolicyRejected   = "policy_rejected"
	OutcomeAlreadyCommitted = "already_committed"
	OutcomeCommitFailed     = "commit_failed"
	OutcomeCancelled        = "cancelled"
)

// Ledger commit attempt results.
const (
	AttemptSuccess   = "success"
	AttemptTransient = "transient"
	AttemptDuplicate = "duplicate"
	AttemptTerminal  = "terminal"
	AttemptCancelled = "cancelled"
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

	OnboardingSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_submissions_total",
			Help: "Onboarding submissions by terminal outcome",
		},
		[]string{"outcome"},
	)

	OnboardingSubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onboarding_submission_duration_seconds",
			Help:    "Wall time from submission to terminal outcome",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	LedgerCommitAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_commit_attempts_total",
			Help: "Individual ledger commit attempts by result",
		},
		[]string{"result"},
	)
)

func RecordSubmission(outcome string, elapsed time.Duration) {
	OnboardingSubmissions.WithLabelValues(outcome).Inc()
	OnboardingSubmissionDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func RecordCommitAttempt(result string) {
	LedgerCommitAttempts.WithLabelValues(result).Inc()
}

// TrackJob marks a job active and returns a func that records its completion.
func TrackJob(taskType string) func(errorCode string) {
	start := time.Now()
	WorkerJobsActive.WithLabelValues(taskType).Inc()

	return func(errorCode string) {
		WorkerJobsActive.WithLabelValues(taskType).Dec()
		WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
		if errorCode == "" {
			WorkerJobsCompleted.WithLabelValues(taskType).Inc()
			return
		}
		WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
	}
}
