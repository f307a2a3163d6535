// Package errors provides standardized error handling for the site workflow.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Request / configuration errors.
	ErrCodeAuthFailed          ErrorCode = "AUTH_FAILED"
	ErrCodeConfigMissingSecret ErrorCode = "CONFIG_MISSING_SECRET"

	// Site generation errors.
	ErrCodeGenerationFailed    ErrorCode = "GENERATION_FAILED"
	ErrCodeGenerationTimeout   ErrorCode = "GENERATION_TIMEOUT"
	ErrCodeGenerationMalformed ErrorCode = "GENERATION_MALFORMED"

	// Publishing errors.
	ErrCodeRepoCreateFailed  ErrorCode = "REPO_CREATE_FAILED"
	ErrCodeRepoNameConflict  ErrorCode = "REPO_NAME_CONFLICT"
	ErrCodeUploadFailed      ErrorCode = "UPLOAD_FAILED"
	ErrCodePagesEnableFailed ErrorCode = "PAGES_ENABLE_FAILED"
	ErrCodePagesUnavailable  ErrorCode = "PAGES_UNAVAILABLE"
	ErrCodeHostingAuthFailed ErrorCode = "HOSTING_AUTH_FAILED"

	// Post-publish notification errors.
	ErrCodeCallbackFailed ErrorCode = "CALLBACK_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches operator-facing context (e.g. the partially created
// repository name) to the error and returns it.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// Error Constructors
// ==========================

// NewAuthFailedError creates a non-retryable shared-secret mismatch error.
func NewAuthFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthFailed,
		Message:   "Invalid shared secret",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigMissingSecretError creates a non-retryable configuration error.
func NewConfigMissingSecretError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigMissingSecret,
		Message:   "Required secret not configured",
		Details:   fmt.Sprintf("secret: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationFailedError creates a retryable text-backend error.
func NewGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   "Text generation backend error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationTimeoutError creates a retryable generation timeout error.
func NewGenerationTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationTimeout,
		Message:   "Text generation timed out",
		Details:   "backend call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationMalformedError creates a retryable malformed-output error.
// The model may produce a well-formed reply on the next attempt.
func NewGenerationMalformedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationMalformed,
		Message:   "Backend output could not be parsed into site files",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRepoCreateFailedError creates a retryable repository creation error.
func NewRepoCreateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRepoCreateFailed,
		Message:   "Repository creation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRepoNameConflictError creates a non-retryable name collision error.
func NewRepoNameConflictError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRepoNameConflict,
		Message:   "Repository name already taken",
		Details:   fmt.Sprintf("repository: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUploadFailedError creates a retryable file upload error.
func NewUploadFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUploadFailed,
		Message:   "File upload failed",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPagesEnableFailedError creates a retryable hosting-enablement error.
func NewPagesEnableFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePagesEnableFailed,
		Message:   "Enabling static hosting failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPagesUnavailableError creates a non-retryable error for accounts
// where the hosting feature is not available.
func NewPagesUnavailableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePagesUnavailable,
		Message:   "Static hosting not available for this account",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewHostingAuthFailedError creates a non-retryable hosting-token error.
func NewHostingAuthFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeHostingAuthFailed,
		Message:   "Hosting API authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCallbackFailedError creates a retryable result-callback error.
func NewCallbackFailedError(url string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCallbackFailed,
		Message:   "Result callback delivery failed",
		Details:   fmt.Sprintf("url: %s, error: %s", url, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// Retry Policy
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeGenerationFailed,
		ErrCodeGenerationMalformed,
		ErrCodeRepoCreateFailed,
		ErrCodeUploadFailed,
		ErrCodePagesEnableFailed,
		ErrCodeCallbackFailed:
		return 3 // Retryable technical errors

	case ErrCodeGenerationTimeout:
		return 2 // Partial retry for timeouts

	default:
		return 0 // Auth, config and business errors: no retry
	}
}

// IsRetryable reports whether the error should be retried at all.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Code extracts the error code, or INTERNAL_ERROR for unclassified errors.
func Code(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}
