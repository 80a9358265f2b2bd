// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NLURequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlu_requests_total",
			Help: "Utterances resolved, by the stage that produced the final intent",
		},
		[]string{"stage", "intent"},
	)

	NLUStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlu_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	LLMErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlu_llm_errors_total",
			Help: "LLM backend calls that failed or returned an unusable reply",
		},
		[]string{"provider", "kind"},
	)

	LLMCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlu_llm_cache_total",
			Help: "LLM reply cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	ContextStoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nlu_context_store_errors_total",
			Help: "Conversation context store reads or writes that failed",
		},
	)

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
)
