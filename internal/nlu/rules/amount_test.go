package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw      string
		expected float64
		wantErr  bool
	}{
		{raw: "$45.50", expected: 45.5},
		{raw: "1,234.56", expected: 1234.56},
		{raw: "1.234,56", expected: 1.234},
		{raw: "12 euros", expected: 12},
		{raw: "costs 7.", expected: 7},
		{raw: "no digits here", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoAmount)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestDetectCurrency(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
		ok       bool
	}{
		{"$10", "USD", true},
		{"€5", "EUR", true},
		{"£3.20", "GBP", true},
		{"₹500", "INR", true},
		{"¥1000", "JPY", true},
		{"20 usd", "USD", true},
		{"20 CAD", "CAD", true},
		{"5 bucks", "USD", true},
		{"one dollar", "USD", true},
		{"12 euros", "EUR", true},
		{"300 rupees", "INR", true},
		{"500 yen", "JPY", true},
		{"42", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			code, ok := DetectCurrency(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, code)
		})
	}
}

func TestStripAmount(t *testing.T) {
	assert.Equal(t, "for lunch", stripAmount("$12 for lunch"))
	assert.Equal(t, "taxi", stripAmount("taxi 15 dollars"))
	assert.True(t, hasMoney("15 dollars"))
	assert.False(t, hasMoney("15 apples"))
	assert.False(t, hasMoney("dollars"))
}

func TestInferCategory(t *testing.T) {
	assert.Equal(t, "Office", InferCategory("office supplies"))
	assert.Equal(t, "Food", InferCategory("Lunch"))
	assert.Equal(t, "Transport", InferCategory("uber home"))
	assert.Equal(t, DefaultCategory, InferCategory("misc"))
}

func TestStripTemporal(t *testing.T) {
	tests := map[string]string{
		"call John at 3pm tomorrow":        "call John",
		"pay rent tomorrow at 9am":         "pay rent",
		"water the plants in 2 hours":      "water the plants",
		"submit report on friday":          "submit report",
		"dentist appointment at 4pm today": "dentist appointment",
	}
	for in, want := range tests {
		assert.Equal(t, want, stripTemporal(in), in)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "I spent $20 on lunch", Normalize("  I spent　＄２０ on\tlunch "))
	assert.Equal(t, "", Normalize(" \n\t "))
}
