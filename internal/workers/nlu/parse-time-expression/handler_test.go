// internal/workers/nlu/parse-time-expression/handler_test.go
package parsetimeexpression

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) { l.t.Logf("INFO: %s %v", msg, fields) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{}) { l.t.Logf("WARN: %s %v", msg, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}
func (l *TestLogger) With(fields map[string]interface{}) Logger { return l }

// Sunday 2024-03-10 09:00 UTC
var fixedNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T) *Handler {
	h := NewHandler(LoadConfig(), nil, &TestLogger{t: t})
	h.now = func() time.Time { return fixedNow }
	return h
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name             string
		input            *Input
		expectedFound    bool
		expectedDate     string
		expectedDateTime string
	}{
		{
			name:             "relative duration",
			input:            &Input{Text: "in 2 hours"},
			expectedFound:    true,
			expectedDate:     "2024-03-10",
			expectedDateTime: "2024-03-10T11:00:00Z",
		},
		{
			name:             "tomorrow with clock",
			input:            &Input{Text: "tomorrow at 3pm"},
			expectedFound:    true,
			expectedDate:     "2024-03-11",
			expectedDateTime: "2024-03-11T15:00:00Z",
		},
		{
			name:             "explicit reference",
			input:            &Input{Text: "in 1 day", Reference: "2025-01-01T08:30:00Z"},
			expectedFound:    true,
			expectedDate:     "2025-01-02",
			expectedDateTime: "2025-01-02T08:30:00Z",
		},
		{
			name:          "nothing temporal",
			input:         &Input{Text: "buy milk"},
			expectedFound: false,
		},
		{
			name:          "empty text",
			input:         &Input{Text: ""},
			expectedFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := newTestHandler(t).Execute(context.Background(), tt.input)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedFound, output.Found)
			if !tt.expectedFound {
				assert.Nil(t, output.Date)
				assert.Nil(t, output.Time)
				assert.Nil(t, output.DateTime)
				return
			}
			require.NotNil(t, output.Date)
			require.NotNil(t, output.DateTime)
			assert.Equal(t, tt.expectedDate, *output.Date)
			assert.Equal(t, tt.expectedDateTime, *output.DateTime)
		})
	}
}

func TestHandler_Execute_InvalidReference(t *testing.T) {
	_, err := newTestHandler(t).Execute(context.Background(), &Input{Text: "tomorrow", Reference: "next tuesday"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidReference))
}
