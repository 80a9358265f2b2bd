package ontology

import "assistant-nlu/internal/common/validation"

// Rule is the validation contract for a single intent.
type Rule struct {
	Required []string
	Optional []string
	Types    map[string][]validation.FieldType
}

// Schema converts the rule into a validation schema. Only the rule's own
// fields and the diagnostic keys are allowed; anything else, ontology key or
// not, is an extra field. Types come from FieldTypes unless the rule narrows
// them.
func (r Rule) Schema() validation.Schema {
	types := make(map[string][]validation.FieldType, len(FieldTypes))
	for k, v := range FieldTypes {
		types[k] = v
	}
	for k, v := range r.Types {
		types[k] = v
	}

	optional := make([]string, 0, len(r.Optional)+len(DiagnosticFields))
	optional = append(optional, r.Optional...)
	optional = append(optional, DiagnosticFields...)

	return validation.Schema{
		Required: r.Required,
		Optional: optional,
		Types:    types,
	}
}

var (
	tString   = []validation.FieldType{validation.TypeString}
	tNumber   = []validation.FieldType{validation.TypeNumber}
	tBool     = []validation.FieldType{validation.TypeBool}
	tDate     = []validation.FieldType{validation.TypeDate}
	tDateTime = []validation.FieldType{validation.TypeDateTime}
	tTags     = []validation.FieldType{validation.TypeStringList, validation.TypeString}
)

// FieldTypes is the default type of every ontology field.
var FieldTypes = map[string][]validation.FieldType{
	FieldContent:       tString,
	FieldAmount:        tNumber,
	FieldCurrency:      tString,
	FieldDescription:   tString,
	FieldCategory:      tString,
	FieldDate:          tDate,
	FieldDateTime:      tDateTime,
	FieldTime:          tString,
	FieldTags:          tTags,
	FieldIsGlobal:      tBool,
	FieldSubject:       tString,
	FieldTitle:         tString,
	FieldLogType:       tString,
	FieldTimeRange:     tString,
	FieldFilter:        tString,
	FieldQuery:         tString,
	FieldKeywords:      tTags,
	FieldQuestionText:  tString,
	FieldPeriod:        tString,
	FieldText:          tString,
	FieldLLMError:      tString,
	FieldLLMParseError: tString,
	FieldLLMFallback:   tBool,
}

// ValidationRules is the single source of truth for per-intent entity
// contracts.
var ValidationRules = map[Intent]Rule{
	IntentSaveNote: {
		Required: []string{FieldContent},
		Optional: []string{FieldTags, FieldDate, FieldIsGlobal, FieldCategory, FieldTitle},
		Types: map[string][]validation.FieldType{
			FieldContent:  tString,
			FieldTags:     tTags,
			FieldDate:     tDate,
			FieldIsGlobal: tBool,
			FieldCategory: tString,
			FieldTitle:    tString,
		},
	},
	IntentLogSpending: {
		Required: []string{FieldAmount},
		Optional: []string{FieldCurrency, FieldDescription, FieldCategory, FieldDate},
		Types: map[string][]validation.FieldType{
			FieldAmount:      tNumber,
			FieldCurrency:    tString,
			FieldDescription: tString,
			FieldCategory:    tString,
			FieldDate:        tDate,
		},
	},
	IntentSetReminder: {
		Required: []string{FieldContent, FieldDateTime},
		Optional: []string{FieldSubject, FieldDate, FieldTime},
		Types: map[string][]validation.FieldType{
			FieldContent:  tString,
			FieldDateTime: tDateTime,
			FieldSubject:  tString,
			FieldDate:     tDate,
			FieldTime:     tString,
		},
	},
	IntentScheduleMeeting: {
		Required: []string{FieldDateTime},
		Optional: []string{FieldSubject, FieldContent, FieldTitle, FieldDate, FieldTime},
		Types: map[string][]validation.FieldType{
			FieldDateTime: tDateTime,
			FieldSubject:  tString,
			FieldContent:  tString,
			FieldTitle:    tString,
			FieldDate:     tDate,
			FieldTime:     tString,
		},
	},
	IntentLogInvestment: {
		Required: []string{FieldContent},
		Optional: []string{FieldTitle, FieldTags, FieldAmount, FieldCurrency, FieldDate},
		Types: map[string][]validation.FieldType{
			FieldContent:  tString,
			FieldTitle:    tString,
			FieldTags:     tTags,
			FieldAmount:   tNumber,
			FieldCurrency: tString,
			FieldDate:     tDate,
		},
	},
	IntentLogMedical: {
		Required: []string{FieldContent},
		Optional: []string{FieldLogType, FieldDate},
		Types: map[string][]validation.FieldType{
			FieldContent: tString,
			FieldLogType: tString,
			FieldDate:    tDate,
		},
	},
	IntentQuerySpending: {
		Optional: []string{FieldTimeRange, FieldCategory, FieldPeriod, FieldDate},
		Types: map[string][]validation.FieldType{
			FieldTimeRange: tString,
			FieldCategory:  tString,
			FieldPeriod:    tString,
			FieldDate:      tDate,
		},
	},
	IntentGetReminders: {
		Optional: []string{FieldFilter, FieldDate},
		Types: map[string][]validation.FieldType{
			FieldFilter: tString,
			FieldDate:   tDate,
		},
	},
	IntentSearchInformation: {
		Optional: []string{FieldQuery, FieldKeywords, FieldTags},
		Types: map[string][]validation.FieldType{
			FieldQuery:    tString,
			FieldKeywords: tTags,
			FieldTags:     tTags,
		},
	},
	IntentGetSummary: {
		Optional: []string{FieldDate, FieldPeriod},
		Types: map[string][]validation.FieldType{
			FieldDate:   tDate,
			FieldPeriod: tString,
		},
	},
	IntentGetNoteSummary: {
		Optional: []string{FieldTags, FieldKeywords, FieldPeriod},
		Types: map[string][]validation.FieldType{
			FieldTags:     tTags,
			FieldKeywords: tTags,
			FieldPeriod:   tString,
		},
	},
	IntentAskQuestion: {
		Required: []string{FieldQuestionText},
		Types: map[string][]validation.FieldType{
			FieldQuestionText: tString,
		},
	},
	IntentUnknown: {},
}

func init() {
	for _, field := range CommonEntities {
		if _, ok := FieldTypes[field]; !ok {
			panic("ontology: missing field type for " + field)
		}
	}
	for _, intent := range ValidIntents {
		if _, ok := ValidationRules[intent]; !ok {
			panic("ontology: missing validation rule for " + string(intent))
		}
	}
}
