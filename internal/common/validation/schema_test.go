package validation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spendingSchema() Schema {
	return Schema{
		Required: []string{"amount"},
		Optional: []string{"currency", "description", "date"},
		Types: map[string][]FieldType{
			"amount":      {TypeNumber},
			"currency":    {TypeString},
			"description": {TypeString},
			"date":        {TypeDate},
		},
	}
}

func TestValidateEntities(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		wantValid bool
		wantCodes []string
	}{
		{
			name:      "all required present",
			input:     map[string]interface{}{"amount": 12.5, "currency": "USD"},
			wantValid: true,
		},
		{
			name:      "missing required",
			input:     map[string]interface{}{"currency": "USD"},
			wantValid: false,
			wantCodes: []string{CodeRequiredFieldMissing},
		},
		{
			name:      "nil required counts as missing",
			input:     map[string]interface{}{"amount": nil},
			wantValid: false,
			wantCodes: []string{CodeRequiredFieldMissing},
		},
		{
			name:      "wrong type",
			input:     map[string]interface{}{"amount": "twelve"},
			wantValid: false,
			wantCodes: []string{CodeInvalidType},
		},
		{
			name:      "extra field rejected",
			input:     map[string]interface{}{"amount": 3, "mood": "happy"},
			wantValid: false,
			wantCodes: []string{CodeExtraField},
		},
		{
			name:      "bad date",
			input:     map[string]interface{}{"amount": 3, "date": "03/04/2024"},
			wantValid: false,
			wantCodes: []string{CodeInvalidType},
		},
		{
			name:      "json number accepted",
			input:     map[string]interface{}{"amount": json.Number("4.20")},
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateEntities(tt.input, spendingSchema())
			assert.Equal(t, tt.wantValid, result.Valid)
			codes := make([]string, 0, len(result.Errors))
			for _, e := range result.Errors {
				codes = append(codes, e.Code)
			}
			if tt.wantCodes != nil {
				assert.Equal(t, tt.wantCodes, codes)
			}
		})
	}
}

func TestValidateEntities_AllowExtra(t *testing.T) {
	schema := spendingSchema()
	schema.AllowExtra = true

	result := ValidateEntities(map[string]interface{}{"amount": 1.0, "anything": true}, schema)
	assert.True(t, result.Valid)
}

func TestMatchesType(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.True(t, MatchesType([]interface{}{"a", "b"}, TypeStringList))
	assert.False(t, MatchesType([]interface{}{"a", 1}, TypeStringList))
	assert.True(t, MatchesType([]string{"x"}, TypeStringList))
	assert.True(t, MatchesType(now, TypeDateTime))
	assert.True(t, MatchesType("2024-03-10T09:00:00Z", TypeDateTime))
	assert.True(t, MatchesType("2024-03-10 09:00", TypeDateTime))
	assert.False(t, MatchesType("tomorrow", TypeDateTime))
	assert.True(t, MatchesType("2024-03-10", TypeDate))
	assert.True(t, MatchesType(true, TypeBool))
	assert.False(t, MatchesType("true", TypeBool))
}

func TestParseDateTimeValue_NaiveIsUTC(t *testing.T) {
	got, ok := ParseDateTimeValue("2024-03-10T15:30:00")
	require.True(t, ok)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 15, got.Hour())

	got, ok = ParseDateTimeValue("2024-03-10T15:30:00+02:00")
	require.True(t, ok)
	assert.Equal(t, 13, got.Hour())
}

func TestValidateContract(t *testing.T) {
	schema := `{
		"type": "object",
		"required": ["intent", "entities"],
		"properties": {
			"intent": {"type": "string"},
			"entities": {"type": "object"}
		}
	}`

	ok := ValidateContract(map[string]interface{}{
		"intent":   "save_note",
		"entities": map[string]interface{}{"content": "x"},
	}, schema)
	assert.True(t, ok.Valid)

	bad := ValidateContract(map[string]interface{}{
		"intent":   7,
		"entities": []interface{}{},
	}, schema)
	assert.False(t, bad.Valid)
	assert.NotEmpty(t, GetErrorMessages(bad))
	for _, e := range bad.Errors {
		assert.Equal(t, CodeContractViolation, e.Code)
	}
}
