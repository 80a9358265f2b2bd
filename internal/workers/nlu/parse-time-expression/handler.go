// internal/workers/nlu/parse-time-expression/handler.go
package parsetimeexpression

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"assistant-nlu/internal/common/camunda"
	apperrors "assistant-nlu/internal/common/errors"
	"assistant-nlu/internal/nlu/timeparse"
)

const (
	TaskType = "parse-time-expression"
)

var (
	ErrInvalidInput     = errors.New("INVALID_INPUT")
	ErrInvalidReference = errors.New("INVALID_REFERENCE")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config       *Config
	parser       *timeparse.Parser
	now          func() time.Time
	errorHandler *apperrors.ErrorHandler
	logger       Logger
}

func NewHandler(config *Config, parser *timeparse.Parser, log Logger) *Handler {
	if parser == nil {
		parser = timeparse.New()
	}
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:       config,
		parser:       parser,
		now:          time.Now,
		errorHandler: apperrors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, apperrors.NewInvalidInputError(fmt.Sprintf("%v: %v", ErrInvalidInput, err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	ref := h.now().UTC()
	if input.Reference != "" {
		t, err := time.Parse(time.RFC3339, input.Reference)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
		}
		ref = t.UTC()
	}

	parsed := h.parser.Parse(input.Text, ref)
	output := &Output{
		Date:  parsed.Date,
		Time:  parsed.Time,
		Found: !parsed.IsZero(),
	}
	if parsed.DateTime != nil {
		s := parsed.DateTimeString()
		output.DateTime = &s
	}

	h.logger.Info("time expression parsed", map[string]interface{}{
		"found":     output.Found,
		"reference": ref.Format(time.RFC3339),
	})
	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)

	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	_, err = camunda.Retry(context.Background(), camunda.DefaultRetryConfig, "complete-job", func(ctx context.Context) (interface{}, error) {
		return cmd.Send(ctx)
	})
	if err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
