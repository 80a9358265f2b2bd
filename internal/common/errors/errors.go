// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput           ErrorCode = "INVALID_INPUT"
	ErrCodeRuleExtractionFailed   ErrorCode = "RULE_EXTRACTION_FAILED"
	ErrCodeEntityValidationFailed ErrorCode = "ENTITY_VALIDATION_FAILED"
	ErrCodeTimeParseFailed        ErrorCode = "TIME_PARSE_FAILED"

	ErrCodeLLMBackendError      ErrorCode = "LLM_BACKEND_ERROR"
	ErrCodeLLMTimeout           ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMResponseMalformed ErrorCode = "LLM_RESPONSE_MALFORMED"
	ErrCodeLLMContractViolation ErrorCode = "LLM_CONTRACT_VIOLATION"

	ErrCodeContextStoreError ErrorCode = "CONTEXT_STORE_ERROR"
	ErrCodeCacheError        ErrorCode = "CACHE_ERROR"
	ErrCodeJobTransport      ErrorCode = "JOB_TRANSPORT_ERROR"

	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error and returns it.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewInvalidInputError creates a non-retryable error for a malformed request.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false, nil)
}

// NewRuleExtractionFailedError wraps an extractor failure for one rule.
func NewRuleExtractionFailedError(rule string, err error) *StandardError {
	return newError(ErrCodeRuleExtractionFailed, "Rule extraction failed", errDetails(err), false, err).
		WithMetadata("rule", rule)
}

// NewEntityValidationFailedError reports an entity bag rejected for intent.
func NewEntityValidationFailedError(intent string, details string) *StandardError {
	return newError(ErrCodeEntityValidationFailed, "Entity validation failed", details, false, nil).
		WithMetadata("intent", intent)
}

// NewLLMBackendError creates a retryable backend error.
func NewLLMBackendError(provider string, err error) *StandardError {
	return newError(ErrCodeLLMBackendError, fmt.Sprintf("%s backend call failed", provider), errDetails(err), true, err).
		WithMetadata("provider", provider)
}

// NewLLMTimeoutError creates a timeout error for a backend call.
func NewLLMTimeoutError(provider string, err error) *StandardError {
	return newError(ErrCodeLLMTimeout, fmt.Sprintf("%s backend timed out", provider), errDetails(err), true, err).
		WithMetadata("provider", provider)
}

// NewLLMResponseMalformedError reports a reply with no parseable JSON object.
func NewLLMResponseMalformedError(details string) *StandardError {
	return newError(ErrCodeLLMResponseMalformed, "LLM reply contained no JSON object", details, false, nil)
}

// NewLLMContractViolationError reports a parsed reply that breaks the output contract.
func NewLLMContractViolationError(details string) *StandardError {
	return newError(ErrCodeLLMContractViolation, "LLM reply violates the output contract", details, false, nil)
}

// NewContextStoreError creates a retryable conversation context store error.
func NewContextStoreError(op string, err error) *StandardError {
	return newError(ErrCodeContextStoreError, fmt.Sprintf("Context store %s failed", op), errDetails(err), true, err)
}

// NewCacheError creates a retryable cache error.
func NewCacheError(op string, err error) *StandardError {
	return newError(ErrCodeCacheError, fmt.Sprintf("Cache %s failed", op), errDetails(err), true, err)
}

// NewJobTransportError wraps a failed Zeebe command.
func NewJobTransportError(operation string, err error, retryable bool) *StandardError {
	return newError(ErrCodeJobTransport, fmt.Sprintf("Zeebe operation '%s' failed", operation), errDetails(err), retryable, err)
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", errDetails(err), false, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeContextStoreError,
		ErrCodeCacheError,
		ErrCodeJobTransport,
		ErrCodeLLMBackendError:
		return 3 // Retryable technical errors

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0 // Input and contract errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError finds a StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "CONTEXT") || strings.Contains(codeStr, "CACHE"):
		return "STORAGE"
	case strings.Contains(codeStr, "JOB"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "RULE") || strings.Contains(codeStr, "TIME_PARSE"):
		return "NLU"
	case strings.Contains(codeStr, "CONFIG"):
		return "CONFIG"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
