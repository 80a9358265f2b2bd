// Package orchestrator runs the hybrid pipeline: rules first, then the LLM
// adapter, then a length heuristic. It is the only component that decides
// a final unknown.
package orchestrator

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"assistant-nlu/internal/common/logger"
	"assistant-nlu/internal/common/metrics"
	"assistant-nlu/internal/common/observability"
	"assistant-nlu/internal/common/validation"
	"assistant-nlu/internal/nlu/convcontext"
	"assistant-nlu/internal/nlu/llm"
	"assistant-nlu/internal/nlu/ontology"
	"assistant-nlu/internal/nlu/rules"
)

// Stage names the pipeline step that produced a result.
type Stage string

const (
	StageRules     Stage = "rules"
	StageLLM       Stage = "llm"
	StageHeuristic Stage = "heuristic"
)

const DefaultMinNoteLength = 50

// Outcome is a result with its provenance.
type Outcome struct {
	Result    ontology.Result `json:"result"`
	Stage     Stage           `json:"stage"`
	RequestID string          `json:"requestId"`
	Duration  time.Duration   `json:"duration"`
}

type Orchestrator struct {
	rules         *rules.Engine
	adapter       *llm.Adapter
	minNoteLength int
	now           func() time.Time
	obs           *observability.Observability
	logger        logger.Logger
}

type Option func(*Orchestrator)

// WithAdapter enables the LLM stage. A nil adapter leaves it disabled.
func WithAdapter(a *llm.Adapter) Option { return func(o *Orchestrator) { o.adapter = a } }

func WithMinNoteLength(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.minNoteLength = n
		}
	}
}

func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

func WithObservability(obs *observability.Observability) Option {
	return func(o *Orchestrator) { o.obs = obs }
}

func New(engine *rules.Engine, log logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		rules:         engine,
		minNoteLength: DefaultMinNoteLength,
		now:           time.Now,
		logger:        log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// LLMEnabled reports whether the LLM stage will run.
func (o *Orchestrator) LLMEnabled() bool {
	return o.adapter != nil
}

// Process classifies text. It always returns a result whose intent is in the
// taxonomy and whose entity keys are in the ontology.
func (o *Orchestrator) Process(ctx context.Context, text string, cc convcontext.Context) ontology.Result {
	return o.Resolve(ctx, text, cc).Result
}

// Resolve is Process plus the stage that answered and a request id.
func (o *Orchestrator) Resolve(ctx context.Context, text string, cc convcontext.Context) Outcome {
	start := time.Now()
	requestID := uuid.NewString()
	log := o.logger.With(map[string]interface{}{"requestId": requestID})

	ctx, span := o.obs.StartSpan(ctx, "nlu.process")
	defer span.End()

	now := o.now().UTC()
	log.Debug("processing utterance", map[string]interface{}{
		"length":       utf8.RuneCountInString(text),
		"userId":       cc.UserID,
		"historyTurns": len(cc.History),
	})

	result, stage := o.run(ctx, text, now, log)
	result.Entities = ontology.FilterEntities(result.Entities)

	elapsed := time.Since(start)
	metrics.NLURequests.WithLabelValues(string(stage), string(result.Intent)).Inc()
	o.obs.RecordUtterance(ctx, string(stage), string(result.Intent))
	o.obs.RecordPipelineDuration(ctx, elapsed, string(stage))
	span.SetAttributes(
		attribute.String("nlu.stage", string(stage)),
		attribute.String("nlu.intent", string(result.Intent)),
		attribute.String("nlu.request_id", requestID),
	)

	log.Debug("utterance resolved", map[string]interface{}{
		"stage":  string(stage),
		"intent": string(result.Intent),
	})
	return Outcome{Result: result, Stage: stage, RequestID: requestID, Duration: elapsed}
}

func (o *Orchestrator) run(ctx context.Context, text string, now time.Time, log logger.Logger) (ontology.Result, Stage) {
	if r := o.ruleStage(ctx, text, now); !r.IsUnknown() {
		log.Debug("rule stage matched", map[string]interface{}{"stage": string(StageRules), "intent": string(r.Intent)})
		return r, StageRules
	}

	var diagnostics ontology.Entities
	if o.adapter != nil && strings.TrimSpace(text) != "" {
		r, diag := o.llmStage(ctx, text)
		if !r.IsUnknown() {
			log.Debug("llm stage matched", map[string]interface{}{"stage": string(StageLLM), "intent": string(r.Intent)})
			return r, StageLLM
		}
		diagnostics = diag
		log.Debug("llm stage gave no usable result", map[string]interface{}{
			"stage":       string(StageLLM),
			"diagnostics": diagnostics,
		})
	}

	return o.heuristicStage(ctx, text, diagnostics), StageHeuristic
}

func (o *Orchestrator) ruleStage(ctx context.Context, text string, now time.Time) ontology.Result {
	_, span := o.obs.StartSpan(ctx, "nlu.stage.rules")
	defer span.End()
	defer observeStage(StageRules, time.Now())

	if o.rules == nil {
		return ontology.Unknown(nil)
	}
	return o.rules.Match(text, now)
}

// llmStage returns a trusted result, or unknown plus whatever diagnostics
// the adapter or re-validation produced.
func (o *Orchestrator) llmStage(ctx context.Context, text string) (ontology.Result, ontology.Entities) {
	ctx, span := o.obs.StartSpan(ctx, "nlu.stage.llm")
	defer span.End()
	defer observeStage(StageLLM, time.Now())

	span.SetAttributes(attribute.String("llm.provider", o.adapter.Provider()))

	r := o.adapter.Classify(ctx, text)
	if r.IsUnknown() {
		return ontology.Unknown(nil), diagnosticsOf(r.Entities)
	}

	if v := ontology.Validate(r.Intent, r.Entities); !v.Valid {
		msg := "entity validation failed for " + string(r.Intent) + ": " + strings.Join(validation.GetErrorMessages(v), "; ")
		return ontology.Unknown(nil), ontology.Entities{ontology.FieldLLMError: msg}
	}

	entities := r.Entities.Clone()
	entities[ontology.FieldLLMFallback] = true
	return ontology.Result{Intent: r.Intent, Entities: entities}, nil
}

func (o *Orchestrator) heuristicStage(ctx context.Context, text string, diagnostics ontology.Entities) ontology.Result {
	_, span := o.obs.StartSpan(ctx, "nlu.stage.heuristic")
	defer span.End()
	defer observeStage(StageHeuristic, time.Now())

	trimmed := strings.TrimSpace(text)
	entities := diagnostics.Clone()

	if utf8.RuneCountInString(trimmed) >= o.minNoteLength {
		entities[ontology.FieldContent] = trimmed
		return ontology.Result{Intent: ontology.IntentSaveNote, Entities: entities}
	}

	entities[ontology.FieldText] = text
	return ontology.Unknown(entities)
}

// diagnosticsOf keeps only the LLM diagnostic keys of an entity bag.
func diagnosticsOf(entities ontology.Entities) ontology.Entities {
	out := ontology.Entities{}
	for _, k := range []string{ontology.FieldLLMError, ontology.FieldLLMParseError} {
		if v, ok := entities[k]; ok {
			out[k] = v
		}
	}
	return out
}

func observeStage(stage Stage, start time.Time) {
	metrics.NLUStageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
}
