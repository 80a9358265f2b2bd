package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name            string
		err             *StandardError
		expectedRetries int
		retryable       bool
	}{
		{"backend error retries", NewLLMBackendError("ollama", errors.New("connection refused")), 3, true},
		{"timeout retries once", NewLLMTimeoutError("gemini", context.DeadlineExceeded), 1, true},
		{"context store retries", NewContextStoreError("load", errors.New("EOF")), 3, true},
		{"invalid input does not retry", NewInvalidInputError("text is required"), 0, false},
		{"contract violation does not retry", NewLLMContractViolationError("intent missing"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, string(tt.err.Code), bpmn.Code)
			assert.Equal(t, tt.expectedRetries, bpmn.Retries)
			assert.Equal(t, tt.retryable, bpmn.Retryable)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestMetadataFlowsIntoVariables(t *testing.T) {
	bpmn := ConvertToBPMNError(NewLLMBackendError("openai", errors.New("401")))
	assert.Equal(t, "openai", bpmn.ToErrorVariables()["provider"])
}

func TestNormalizeError(t *testing.T) {
	wrapped := fmt.Errorf("process: %w", NewInvalidInputError("empty"))
	std := NormalizeError(wrapped)
	assert.Equal(t, ErrCodeInvalidInput, std.Code)

	plain := NormalizeError(errors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestStandardErrorUnwrap(t *testing.T) {
	std := NewLLMTimeoutError("ollama", context.DeadlineExceeded)
	require.ErrorIs(t, std, context.DeadlineExceeded)

	found, ok := AsStandardError(fmt.Errorf("outer: %w", std))
	require.True(t, ok)
	assert.Same(t, std, found)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeLLMTimeout))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeCacheError))
	assert.Equal(t, "NLU", GetErrorCategory(ErrCodeTimeParseFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeEntityValidationFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "CONFIG", GetErrorCategory(ErrCodeConfigInvalid))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
	assert.True(t, IsRetryableErrorCode(ErrCodeCacheError))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidInput))
}
