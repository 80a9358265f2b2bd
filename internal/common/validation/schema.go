package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// FieldType is the weak type a single entity value may carry.
type FieldType int

const (
	TypeString FieldType = iota
	TypeNumber
	TypeBool
	TypeStringList
	TypeDate
	TypeDateTime
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "boolean"
	case TypeStringList:
		return "string list"
	case TypeDate:
		return "date"
	case TypeDateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

const (
	CodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	CodeExtraField           = "EXTRA_FIELD"
	CodeInvalidType          = "INVALID_TYPE"
	CodeContractViolation    = "CONTRACT_VIOLATION"
)

// DateLayout is the canonical layout of date entity values.
const DateLayout = "2006-01-02"

// DateTimeLayouts lists the accepted layouts for datetime entity values.
// RFC3339 is what the pipeline emits; the rest are tolerated on input.
var DateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Schema describes the allowed shape of an entity bag.
type Schema struct {
	Required []string
	Optional []string
	// Types maps a field to the set of types it may take. A field absent
	// from Types accepts any value.
	Types map[string][]FieldType
	// AllowExtra permits fields not named in Required or Optional.
	AllowExtra bool
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateEntities checks required presence, closed field membership and
// per-field types. Errors are sorted by field so results are stable.
func ValidateEntities(input map[string]interface{}, schema Schema) *ValidationResult {
	errors := []ValidationError{}

	for _, field := range schema.Required {
		if v, exists := input[field]; !exists || v == nil {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "required field missing",
				Code:    CodeRequiredFieldMissing,
			})
		}
	}

	allowed := make(map[string]bool, len(schema.Required)+len(schema.Optional))
	for _, f := range schema.Required {
		allowed[f] = true
	}
	for _, f := range schema.Optional {
		allowed[f] = true
	}

	for field, value := range input {
		if !allowed[field] && !schema.AllowExtra {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "field not allowed for this intent",
				Code:    CodeExtraField,
			})
			continue
		}
		if value == nil {
			continue
		}
		types, ok := schema.Types[field]
		if !ok || len(types) == 0 {
			continue
		}
		if !matchesAny(value, types) {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("expected %s, got %T", describeTypes(types), value),
				Code:    CodeInvalidType,
			})
		}
	}

	sort.SliceStable(errors, func(i, j int) bool {
		if errors[i].Field == errors[j].Field {
			return errors[i].Code < errors[j].Code
		}
		return errors[i].Field < errors[j].Field
	})

	return &ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func matchesAny(value interface{}, types []FieldType) bool {
	for _, t := range types {
		if MatchesType(value, t) {
			return true
		}
	}
	return false
}

// MatchesType reports whether value is acceptable as t.
func MatchesType(value interface{}, t FieldType) bool {
	switch t {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeNumber:
		switch v := value.(type) {
		case float64, float32, int, int32, int64:
			return true
		case json.Number:
			_, err := v.Float64()
			return err == nil
		}
		return false
	case TypeBool:
		_, ok := value.(bool)
		return ok
	case TypeStringList:
		switch v := value.(type) {
		case []string:
			return true
		case []interface{}:
			for _, item := range v {
				if _, ok := item.(string); !ok {
					return false
				}
			}
			return true
		}
		return false
	case TypeDate:
		s, ok := value.(string)
		if !ok {
			return false
		}
		_, err := time.Parse(DateLayout, s)
		return err == nil
	case TypeDateTime:
		switch v := value.(type) {
		case time.Time:
			return !v.IsZero()
		case string:
			_, ok := ParseDateTimeValue(v)
			return ok
		}
		return false
	}
	return false
}

// ParseDateTimeValue parses s with the first matching layout in
// DateTimeLayouts. Layouts without a zone are read as UTC.
func ParseDateTimeValue(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range DateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func describeTypes(types []FieldType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, " or ")
}

// ValidateContract validates an arbitrary decoded JSON document against a
// JSON schema given as text.
func ValidateContract(document interface{}, schemaJSON string) *ValidationResult {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    CodeContractViolation,
			}},
		}
	}

	errors := []ValidationError{}
	for _, desc := range result.Errors() {
		errors = append(errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    CodeContractViolation,
		})
	}

	return &ValidationResult{
		Valid:  result.Valid(),
		Errors: errors,
	}
}

// GetErrorMessages returns human-readable error messages
func GetErrorMessages(result *ValidationResult) []string {
	messages := make([]string, len(result.Errors))
	for i, err := range result.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}
