// internal/workers/nlu/process-utterance/handler.go
package processutterance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"assistant-nlu/internal/common/camunda"
	apperrors "assistant-nlu/internal/common/errors"
	"assistant-nlu/internal/nlu/convcontext"
	"assistant-nlu/internal/nlu/orchestrator"
)

const (
	TaskType = "process-utterance"
)

var (
	ErrInvalidUtterance   = errors.New("INVALID_UTTERANCE")
	ErrContextUnavailable = errors.New("CONTEXT_UNAVAILABLE")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Pipeline is the part of the orchestrator the handler needs.
type Pipeline interface {
	Resolve(ctx context.Context, text string, cc convcontext.Context) orchestrator.Outcome
}

// ContextStore loads and records conversation turns. It may be nil.
type ContextStore interface {
	Load(ctx context.Context, userID string) (convcontext.Context, error)
	Append(ctx context.Context, userID string, turn convcontext.Turn) error
}

type Handler struct {
	config       *Config
	pipeline     Pipeline
	store        ContextStore
	errorHandler *apperrors.ErrorHandler
	logger       Logger
}

func NewHandler(config *Config, pipeline Pipeline, store ContextStore, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:       config,
		pipeline:     pipeline,
		store:        store,
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
		h.errorHandler.HandleJobError(ctx, client, job, toStandardError(fmt.Errorf("%w: %v", ErrInvalidUtterance, err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, toStandardError(err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if n := utf8.RuneCountInString(input.Text); h.config.MaxTextLength > 0 && n > h.config.MaxTextLength {
		return nil, fmt.Errorf("%w: text has %d characters, limit is %d", ErrInvalidUtterance, n, h.config.MaxTextLength)
	}

	cc := h.loadContext(ctx, input.UserID)
	outcome := h.pipeline.Resolve(ctx, input.Text, cc)

	if h.store != nil && input.UserID != "" {
		turn := convcontext.Turn{Text: input.Text, Intent: outcome.Result.Intent}
		if err := h.store.Append(ctx, input.UserID, turn); err != nil {
			h.logger.Warn("failed to record conversation turn", map[string]interface{}{
				"userId": input.UserID,
				"error":  fmt.Errorf("%w: %v", ErrContextUnavailable, err).Error(),
			})
		}
	}

	h.logger.Info("utterance processed", map[string]interface{}{
		"requestId": outcome.RequestID,
		"intent":    string(outcome.Result.Intent),
		"stage":     string(outcome.Stage),
		"entities":  len(outcome.Result.Entities),
	})

	return &Output{
		Intent:    string(outcome.Result.Intent),
		Entities:  outcome.Result.Entities,
		Stage:     string(outcome.Stage),
		RequestID: outcome.RequestID,
	}, nil
}

// loadContext never fails: an unavailable store yields an empty history.
func (h *Handler) loadContext(ctx context.Context, userID string) convcontext.Context {
	if h.store == nil || userID == "" {
		return convcontext.Empty(userID)
	}
	cc, err := h.store.Load(ctx, userID)
	if err != nil {
		h.logger.Warn("conversation context unavailable, continuing without it", map[string]interface{}{
			"userId": userID,
			"error":  fmt.Errorf("%w: %v", ErrContextUnavailable, err).Error(),
		})
		return convcontext.Empty(userID)
	}
	return cc
}

func toStandardError(err error) *apperrors.StandardError {
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		return stdErr
	}
	if errors.Is(err, ErrInvalidUtterance) {
		return apperrors.NewInvalidInputError(err.Error())
	}
	return apperrors.NewInternalError(err)
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
