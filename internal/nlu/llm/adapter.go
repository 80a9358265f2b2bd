package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "assistant-nlu/internal/common/errors"
	"assistant-nlu/internal/common/logger"
	"assistant-nlu/internal/common/metrics"
	"assistant-nlu/internal/common/validation"
	"assistant-nlu/internal/nlu/ontology"
	"assistant-nlu/internal/nlu/timeparse"
)

const (
	DefaultMaxTokens   = 256
	DefaultTemperature = 0.1

	snippetRunes = 200

	// examplesReferenceDate is the "today" the few-shot outputs were written against.
	examplesReferenceDate = "2024-01-15"
)

// replyContract is the structural contract every reply must satisfy before
// its vocabulary is checked.
const replyContract = `{
  "type": "object",
  "required": ["intent", "entities"],
  "properties": {
    "intent":   {"type": "string", "minLength": 1},
    "entities": {"type": "object"}
  }
}`

// Adapter classifies text with a generative backend and enforces the output
// contract on the reply. It never returns an error: failures become
// diagnostic entities on an unknown result.
type Adapter struct {
	backend     Backend
	maxTokens   int
	temperature float64
	timeout     time.Duration
	examples    []Example
	times       *timeparse.Parser
	now         func() time.Time
	logger      logger.Logger
}

type Option func(*Adapter)

func WithMaxTokens(n int) Option { return func(a *Adapter) { a.maxTokens = n } }

func WithTemperature(t float64) Option { return func(a *Adapter) { a.temperature = t } }

// WithTimeout bounds each backend call. Zero leaves the caller's deadline.
func WithTimeout(d time.Duration) Option { return func(a *Adapter) { a.timeout = d } }

func WithExamples(examples []Example) Option { return func(a *Adapter) { a.examples = examples } }

func WithTimeParser(p *timeparse.Parser) Option { return func(a *Adapter) { a.times = p } }

func WithClock(now func() time.Time) Option { return func(a *Adapter) { a.now = now } }

func NewAdapter(backend Backend, log logger.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		backend:     backend,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		examples:    DefaultExamples(),
		now:         time.Now,
		logger:      log.With(map[string]interface{}{"stage": "llm"}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.times == nil {
		a.times = timeparse.New()
	}
	return a
}

// Provider names the wrapped backend.
func (a *Adapter) Provider() string {
	if a == nil || a.backend == nil {
		return "none"
	}
	return a.backend.Name()
}

// Classify asks the backend for {intent, entities} and validates the reply.
func (a *Adapter) Classify(ctx context.Context, text string) ontology.Result {
	if a == nil || a.backend == nil {
		return ontology.Unknown(ontology.Entities{ontology.FieldLLMError: "llm backend not configured"})
	}
	now := a.now().UTC()
	provider := a.backend.Name()

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.backend.GenerateText(callCtx, a.BuildPrompt(text, now), a.maxTokens, a.temperature)
	if err != nil {
		stdErr := classifyBackendError(provider, err)
		metrics.LLMErrors.WithLabelValues(provider, string(stdErr.Code)).Inc()
		a.logger.Warn("llm backend call failed", map[string]interface{}{
			"provider":  provider,
			"errorCode": string(stdErr.Code),
			"error":     err.Error(),
		})
		return ontology.Unknown(ontology.Entities{ontology.FieldLLMError: describe(stdErr)})
	}

	obj, ok := ExtractJSON(raw)
	if !ok {
		stdErr := apperrors.NewLLMResponseMalformedError(snippet(raw))
		metrics.LLMErrors.WithLabelValues(provider, string(stdErr.Code)).Inc()
		a.logger.Warn("llm reply had no JSON object", map[string]interface{}{
			"provider": provider,
			"reply":    snippet(raw),
		})
		return ontology.Unknown(ontology.Entities{ontology.FieldLLMParseError: describe(stdErr)})
	}

	if err := ValidateReply(obj); err != nil {
		stdErr := apperrors.NewLLMContractViolationError(err.Error())
		metrics.LLMErrors.WithLabelValues(provider, string(stdErr.Code)).Inc()
		a.logger.Warn("llm reply violates contract", map[string]interface{}{
			"provider": provider,
			"error":    err.Error(),
		})
		return ontology.Unknown(ontology.Entities{ontology.FieldLLMError: describe(stdErr)})
	}

	intent := ontology.Intent(obj["intent"].(string))
	entities := a.normalizeEntities(obj["entities"].(map[string]interface{}), now)

	a.logger.Debug("llm classified utterance", map[string]interface{}{
		"provider": provider,
		"intent":   string(intent),
	})
	return ontology.Result{Intent: intent, Entities: entities}
}

// ValidateReply checks the structural contract, intent membership and that
// every entity key is in the ontology. Unknown keys are rejected here;
// dropping them is the orchestrator's final step.
func ValidateReply(obj map[string]interface{}) error {
	if result := validation.ValidateContract(obj, replyContract); !result.Valid {
		return errors.New(strings.Join(validation.GetErrorMessages(result), "; "))
	}

	intent := obj["intent"].(string)
	if !ontology.IsValidIntent(intent) {
		return fmt.Errorf("intent %q is not in the taxonomy", intent)
	}

	entities := obj["entities"].(map[string]interface{})
	if unknown := ontology.UnknownKeys(entities); len(unknown) > 0 {
		return fmt.Errorf("entity keys not in the ontology: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// BuildPrompt renders the classification prompt. The output depends only on
// text, now and the configured examples.
func (a *Adapter) BuildPrompt(text string, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("You are the intent classifier of a personal assistant. ")
	sb.WriteString("Classify the user message into exactly one intent and extract entities.\n")
	sb.WriteString("Reply with ONLY one JSON object of the form {\"intent\": string, \"entities\": object} and no other text.\n\n")

	sb.WriteString("Valid intents: ")
	sb.WriteString(joinIntents(ontology.ValidIntents))
	sb.WriteString(".\nIf no intent fits, use \"unknown\".\n\n")

	sb.WriteString("Valid entity keys: ")
	sb.WriteString(strings.Join(promptEntities(), ", "))
	sb.WriteString(".\nUse no other keys.\n\n")

	sb.WriteString("Required entities per intent:\n")
	for _, intent := range ontology.ValidIntents {
		rule := ontology.ValidationRules[intent]
		if len(rule.Required) == 0 {
			continue
		}
		sb.WriteString("- " + string(intent) + ": " + strings.Join(rule.Required, ", ") + "\n")
	}
	sb.WriteString("Optional entities per intent (any other key is rejected):\n")
	for _, intent := range ontology.ValidIntents {
		rule := ontology.ValidationRules[intent]
		if len(rule.Optional) == 0 {
			continue
		}
		sb.WriteString("- " + string(intent) + ": " + strings.Join(rule.Optional, ", ") + "\n")
	}
	sb.WriteString("Dates are YYYY-MM-DD. Datetimes are ISO-8601 in UTC. Amounts are plain numbers.\n\n")

	if len(a.examples) > 0 {
		sb.WriteString("Examples (written as if today were " + examplesReferenceDate + "):\n")
		for _, ex := range a.examples {
			out, err := json.Marshal(ex.Output)
			if err != nil {
				continue
			}
			sb.WriteString("User: " + strconv.Quote(ex.Input) + "\n")
			sb.WriteString("Output: " + string(out) + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Today is " + now.UTC().Format(timeparse.DateLayout) + ".\n")
	sb.WriteString("User: " + strconv.Quote(text) + "\n")
	sb.WriteString("Output:")
	return sb.String()
}

// normalizeEntities coerces loosely typed reply values into the shapes the
// validation rules expect. Values that cannot be coerced are left as they
// are so that re-validation rejects them.
func (a *Adapter) normalizeEntities(in map[string]interface{}, now time.Time) ontology.Entities {
	out := make(ontology.Entities, len(in))
	for k, v := range in {
		if v == nil {
			continue
		}
		switch k {
		case ontology.FieldDate:
			if d, ok := a.times.ParseDate(v, now); ok {
				v = d
			}
		case ontology.FieldDateTime:
			if t, ok := a.times.ParseDateTime(v, now); ok {
				v = t.UTC().Format(time.RFC3339)
			}
		case ontology.FieldAmount:
			if s, ok := v.(string); ok {
				if f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64); err == nil {
					v = f
				}
			}
		case ontology.FieldTags, ontology.FieldKeywords:
			if list, ok := v.([]interface{}); ok {
				v = toStrings(list)
			}
		}
		out[k] = v
	}
	return out
}

func toStrings(list []interface{}) interface{} {
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return list
		}
		out = append(out, s)
	}
	return out
}

func classifyBackendError(provider string, err error) *apperrors.StandardError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewLLMTimeoutError(provider, err)
	}
	return apperrors.NewLLMBackendError(provider, err)
}

func describe(e *apperrors.StandardError) string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

// snippet trims s to at most snippetRunes runes for diagnostics.
func snippet(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= snippetRunes {
		return s
	}
	return string([]rune(s)[:snippetRunes]) + "..."
}

func joinIntents(intents []ontology.Intent) string {
	names := make([]string, len(intents))
	for i, in := range intents {
		names[i] = string(in)
	}
	return strings.Join(names, ", ")
}

// promptEntities lists the ontology without the diagnostic keys, which the
// pipeline sets itself.
func promptEntities() []string {
	diag := map[string]bool{}
	for _, d := range ontology.DiagnosticFields {
		diag[d] = true
	}
	var out []string
	for _, e := range ontology.CommonEntities {
		if !diag[e] {
			out = append(out, e)
		}
	}
	sort.Strings(out)
	return out
}
