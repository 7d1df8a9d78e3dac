// Package errors provides structured error handling for thaitok.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk)
//   - 3XX: Search engine / network errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryNetwork indicates search-engine and network errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeDictionaryLoad = "ERR_203_DICTIONARY_LOAD"
	ErrCodeTelemetryStore = "ERR_204_TELEMETRY_STORE"

	// Search engine / network errors (300-399)
	ErrCodeEngineTimeout     = "ERR_301_ENGINE_TIMEOUT"
	ErrCodeEngineUnavailable = "ERR_302_ENGINE_UNAVAILABLE"
	ErrCodeEngineThrottled   = "ERR_303_ENGINE_THROTTLED"
	ErrCodeEngineRejected    = "ERR_304_ENGINE_REJECTED"
	ErrCodeSegmenterBackend  = "ERR_305_SEGMENTER_BACKEND"
	ErrCodeTaskFailed        = "ERR_306_TASK_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeMissingDocumentID = "ERR_402_MISSING_DOCUMENT_ID"
	ErrCodeInvalidSettings   = "ERR_403_INVALID_SETTINGS"
	ErrCodeQueryEmpty        = "ERR_404_QUERY_EMPTY"
	ErrCodeQueryTooLong      = "ERR_405_QUERY_TOO_LONG"

	// Internal errors (500-599)
	ErrCodeInternal           = "ERR_501_INTERNAL"
	ErrCodeSegmentationFailed = "ERR_502_SEGMENTATION_FAILED"
	ErrCodeProcessingFailed   = "ERR_503_PROCESSING_FAILED"
	ErrCodeEnhanceFailed      = "ERR_504_ENHANCE_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract the numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	// Configuration problems abort startup.
	switch code {
	case ErrCodeConfigInvalid, ErrCodeConfigNotFound:
		return SeverityFatal
	}

	// Retryable engine errors get warning severity: the batch continues.
	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a transient error.
// 4xx responses from the search engine are permanent except throttling (429).
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeEngineTimeout, ErrCodeEngineUnavailable, ErrCodeEngineThrottled, ErrCodeSegmenterBackend:
		return true
	default:
		return false
	}
}
