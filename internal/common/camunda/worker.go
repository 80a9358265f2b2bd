// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"assistant-nlu/internal/common/config"
	apperrors "assistant-nlu/internal/common/errors"
	"assistant-nlu/internal/common/metrics"
)

// HandlerFunc is the signature every worker package's Handle method has.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// Instrument wraps h with job duration and completion metrics.
func Instrument(taskType string, h HandlerFunc) HandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		h(client, job)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
		metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
	}
}

// ValidateInput rejects jobs whose variables fail validate with a
// non-retryable INVALID_INPUT error before h runs.
func ValidateInput(validate func(vars map[string]interface{}) error, errs *apperrors.ErrorHandler, h HandlerFunc) HandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		vars, err := job.GetVariablesAsMap()
		if err == nil {
			err = validate(vars)
		}
		if err != nil {
			errs.HandleJobError(context.Background(), client, job, apperrors.NewInvalidInputError(err.Error()))
			return
		}
		h(client, job)
	}
}

// StartWorker opens a job worker for taskType unless it is disabled. The
// returned worker is nil when disabled.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, h HandlerFunc, log *zap.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return nil
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(Instrument(taskType, h))).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return jw
}
