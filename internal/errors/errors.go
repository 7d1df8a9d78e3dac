package errors

import (
	"fmt"
)

// TokError is the structured error type for thaitok.
// It provides context for error handling, logging, and batch error reports.
type TokError struct {
	// Code is the unique error code (e.g., "ERR_402_MISSING_DOCUMENT_ID").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *TokError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *TokError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with TokError.
func (e *TokError) Is(target error) bool {
	if t, ok := target.(*TokError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *TokError) WithDetail(key, value string) *TokError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new TokError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *TokError {
	return &TokError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a TokError from an existing error.
// The error's message becomes the TokError message.
func Wrap(code string, err error) *TokError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error. Fatal at startup.
func ConfigError(message string, cause error) *TokError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates an input validation error.
func ValidationError(message string, cause error) *TokError {
	return New(ErrCodeInvalidInput, message, cause)
}

// EngineError creates a search-engine error from an HTTP status code.
// 5xx and 429 are retryable; other 4xx are permanent rejections.
func EngineError(statusCode int, message string) *TokError {
	switch {
	case statusCode == 429:
		return New(ErrCodeEngineThrottled, message, nil)
	case statusCode >= 500:
		return New(ErrCodeEngineUnavailable, message, nil)
	default:
		return New(ErrCodeEngineRejected, message, nil)
	}
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *TokError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a TokError with the Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if te, ok := err.(*TokError); ok {
		return te.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort startup.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if te, ok := err.(*TokError); ok {
		return te.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a TokError.
// Returns empty string if not a TokError.
func GetCode(err error) string {
	if te, ok := err.(*TokError); ok {
		return te.Code
	}
	return ""
}

// GetCategory extracts the category from a TokError.
// Returns empty string if not a TokError.
func GetCategory(err error) Category {
	if te, ok := err.(*TokError); ok {
		return te.Category
	}
	return ""
}
