// Package ontology holds the closed vocabulary of the NLU pipeline: the
// intents it may emit, the entity fields it may carry and the per-intent
// validation rules every other stage checks against.
package ontology

import (
	"sort"

	"assistant-nlu/internal/common/validation"
)

// Intent is the classified purpose of an utterance.
type Intent string

const (
	IntentSaveNote          Intent = "save_note"
	IntentLogSpending       Intent = "log_spending"
	IntentSetReminder       Intent = "set_reminder"
	IntentScheduleMeeting   Intent = "schedule_meeting"
	IntentLogInvestment     Intent = "log_investment"
	IntentLogMedical        Intent = "log_medical"
	IntentQuerySpending     Intent = "query_spending"
	IntentGetReminders      Intent = "get_reminders"
	IntentSearchInformation Intent = "search_information"
	IntentGetSummary        Intent = "get_summary"
	IntentGetNoteSummary    Intent = "get_note_summary"
	IntentAskQuestion       Intent = "ask_question"
	IntentUnknown           Intent = "unknown"
)

// Entity field names.
const (
	FieldContent      = "content"
	FieldAmount       = "amount"
	FieldCurrency     = "currency"
	FieldDescription  = "description"
	FieldCategory     = "category"
	FieldDate         = "date"
	FieldDateTime     = "datetime"
	FieldTime         = "time"
	FieldTags         = "tags"
	FieldIsGlobal     = "is_global"
	FieldSubject      = "subject"
	FieldTitle        = "title"
	FieldLogType      = "log_type"
	FieldTimeRange    = "time_range"
	FieldFilter       = "filter"
	FieldQuery        = "query"
	FieldKeywords     = "keywords"
	FieldQuestionText = "question_text"
	FieldPeriod       = "period"
	FieldText         = "text"

	// Diagnostics attached by the LLM stage.
	FieldLLMError      = "llm_error"
	FieldLLMParseError = "llm_parse_error"
	FieldLLMFallback   = "llm_fallback"
)

// ValidIntents is the intent taxonomy in presentation order.
var ValidIntents = []Intent{
	IntentSaveNote,
	IntentLogSpending,
	IntentSetReminder,
	IntentScheduleMeeting,
	IntentLogInvestment,
	IntentLogMedical,
	IntentQuerySpending,
	IntentGetReminders,
	IntentSearchInformation,
	IntentGetSummary,
	IntentGetNoteSummary,
	IntentAskQuestion,
	IntentUnknown,
}

// CommonEntities is the entity ontology in presentation order.
var CommonEntities = []string{
	FieldContent,
	FieldAmount,
	FieldCurrency,
	FieldDescription,
	FieldCategory,
	FieldDate,
	FieldDateTime,
	FieldTime,
	FieldTags,
	FieldIsGlobal,
	FieldSubject,
	FieldTitle,
	FieldLogType,
	FieldTimeRange,
	FieldFilter,
	FieldQuery,
	FieldKeywords,
	FieldQuestionText,
	FieldPeriod,
	FieldText,
	FieldLLMError,
	FieldLLMParseError,
	FieldLLMFallback,
}

// DiagnosticFields may appear on any intent.
var DiagnosticFields = []string{FieldText, FieldLLMError, FieldLLMParseError, FieldLLMFallback}

var (
	intentSet = make(map[Intent]bool, len(ValidIntents))
	entitySet = make(map[string]bool, len(CommonEntities))
)

func init() {
	for _, i := range ValidIntents {
		intentSet[i] = true
	}
	for _, e := range CommonEntities {
		entitySet[e] = true
	}
}

// IsValidIntent reports whether s names an intent in the taxonomy.
func IsValidIntent(s string) bool {
	return intentSet[Intent(s)]
}

// IsKnownEntity reports whether name is in the entity ontology.
func IsKnownEntity(name string) bool {
	return entitySet[name]
}

// Entities is the weakly typed entity bag of a result.
type Entities map[string]interface{}

// Clone returns a shallow copy.
func (e Entities) Clone() Entities {
	out := make(Entities, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Result is the terminal {intent, entities} contract.
type Result struct {
	Intent   Intent   `json:"intent"`
	Entities Entities `json:"entities"`
}

// Unknown returns a fresh unknown result carrying the given entities.
func Unknown(entities Entities) Result {
	if entities == nil {
		entities = Entities{}
	}
	return Result{Intent: IntentUnknown, Entities: entities}
}

// IsUnknown reports whether the result carries no usable classification.
func (r Result) IsUnknown() bool {
	return r.Intent == IntentUnknown || r.Intent == ""
}

// UnknownKeys returns entity keys outside the ontology, sorted.
func UnknownKeys(entities Entities) []string {
	var keys []string
	for k := range entities {
		if !entitySet[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// FilterEntities drops every key outside the ontology. It never mutates
// its argument.
func FilterEntities(entities Entities) Entities {
	out := make(Entities, len(entities))
	for k, v := range entities {
		if entitySet[k] {
			out[k] = v
		}
	}
	return out
}

// Validate checks entities against the rule for intent. An intent outside
// the taxonomy is reported as an invalid intent.
func Validate(intent Intent, entities Entities) *validation.ValidationResult {
	rule, ok := ValidationRules[intent]
	if !ok {
		return &validation.ValidationResult{
			Valid: false,
			Errors: []validation.ValidationError{{
				Field:   "intent",
				Message: "intent not in taxonomy: " + string(intent),
				Code:    "INVALID_INTENT",
			}},
		}
	}
	return validation.ValidateEntities(entities, rule.Schema())
}

// IsValid is shorthand for Validate(...).Valid.
func IsValid(r Result) bool {
	return Validate(r.Intent, r.Entities).Valid
}
