package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigRequired ErrorCode = "CONFIG_REQUIRED"

	// Resource errors
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// Resolution errors
	ErrCodeUnsupportedInput ErrorCode = "UNSUPPORTED_INPUT"
	ErrCodeResolution       ErrorCode = "RESOLUTION_FAILED"

	// Acquisition errors
	ErrCodeMissingSource    ErrorCode = "MISSING_SOURCE"
	ErrCodeMissingVideo     ErrorCode = "MISSING_VIDEO"
	ErrCodeCodecUnavailable ErrorCode = "CODEC_UNAVAILABLE"
	ErrCodeDownload         ErrorCode = "DOWNLOAD_FAILED"

	// Transcription errors
	ErrCodeASRBackend   ErrorCode = "ASR_BACKEND"
	ErrCodeMissingInput ErrorCode = "MISSING_INPUT"

	// External service errors
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE"
	ErrCodeAPITimeout      ErrorCode = "API_TIMEOUT"
	ErrCodeAPIRateLimit    ErrorCode = "API_RATE_LIMIT"

	// Internal errors
	ErrCodeInternal      ErrorCode = "INTERNAL"
	ErrCodeDatabaseQuery ErrorCode = "DATABASE_QUERY"
	ErrCodeStorage       ErrorCode = "STORAGE"
)

// Sentinels for errors.Is matching. AppError.Is compares codes, so any
// AppError carrying the same code matches.
var (
	ErrUnsupportedInput = New(ErrCodeUnsupportedInput, "unsupported input")
	ErrResolution       = New(ErrCodeResolution, "resolution failed")
	ErrMissingSource    = New(ErrCodeMissingSource, "missing source")
	ErrMissingVideo     = New(ErrCodeMissingVideo, "missing video")
	ErrCodecUnavailable = New(ErrCodeCodecUnavailable, "codec unavailable")
	ErrASRBackend       = New(ErrCodeASRBackend, "asr backend error")
	ErrMissingInput     = New(ErrCodeMissingInput, "missing input")
	ErrNotFound         = New(ErrCodeNotFound, "not found")
)

// AppError represents a structured application error
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Raw      map[string]interface{} `json:"raw,omitempty"`
	Cause    error                  `json:"-"`
	HTTPCode int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError with the same code
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithRaw attaches the verbatim backend payload for diagnostics
func (e *AppError) WithRaw(raw map[string]interface{}) *AppError {
	e.Raw = raw
	return e
}

// WithCause sets the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// GetHTTPCode returns the appropriate HTTP status code
func (e *AppError) GetHTTPCode() int {
	if e.HTTPCode != 0 {
		return e.HTTPCode
	}
	return getDefaultHTTPCode(e.Code)
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Newf creates a new AppError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an AppError
func Wrap(cause error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Cause:    cause,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(cause error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(cause, code, fmt.Sprintf(format, args...))
}

// getDefaultHTTPCode returns the default HTTP status code for an error code
func getDefaultHTTPCode(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeValidation, ErrCodeInvalidInput, ErrCodeMissingField, ErrCodeUnsupportedInput:
		return http.StatusBadRequest
	case ErrCodeAPIRateLimit:
		return http.StatusTooManyRequests
	case ErrCodeAPITimeout:
		return http.StatusRequestTimeout
	case ErrCodeExternalService, ErrCodeASRBackend, ErrCodeResolution, ErrCodeDownload:
		return http.StatusBadGateway
	case ErrCodeCodecUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors

// NotFound creates a not found error
func NotFound(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// ValidationError creates a validation error
func ValidationError(field string, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// MissingFieldError creates a missing field error
func MissingFieldError(field string) *AppError {
	return New(ErrCodeMissingField, fmt.Sprintf("required field '%s' is missing", field)).
		WithDetail("field", field)
}

// ConfigError creates a configuration error
func ConfigError(key string, reason string) *AppError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("configuration error for '%s': %s", key, reason)).
		WithDetail("key", key).
		WithDetail("reason", reason)
}

// UnsupportedInput reports an input no resolver variant accepts
func UnsupportedInput(input string) *AppError {
	return New(ErrCodeUnsupportedInput, fmt.Sprintf("unsupported input: %s", input)).
		WithDetail("input", input)
}

// ResolutionError reports a malformed or unexpected platform response
func ResolutionError(platform, reason string, cause error) *AppError {
	return Wrap(cause, ErrCodeResolution, fmt.Sprintf("%s: %s", platform, reason)).
		WithDetail("platform", platform)
}

// ASRBackendError reports a failed transcription call and keeps the raw response
func ASRBackendError(backend, message string, raw map[string]interface{}) *AppError {
	return New(ErrCodeASRBackend, fmt.Sprintf("%s: %s", backend, message)).
		WithDetail("backend", backend).
		WithRaw(raw)
}

// MissingInputError reports an item whose shape does not fit the selected mode
func MissingInputError(mode, field string) *AppError {
	return New(ErrCodeMissingInput, fmt.Sprintf("mode %s requires %s", mode, field)).
		WithDetail("mode", mode).
		WithDetail("field", field)
}

// ExternalServiceError creates an external service error
func ExternalServiceError(service string, cause error) *AppError {
	return Wrap(cause, ErrCodeExternalService, fmt.Sprintf("external service '%s' error", service)).
		WithDetail("service", service)
}

// DatabaseError creates a database error
func DatabaseError(operation string, cause error) *AppError {
	return Wrap(cause, ErrCodeDatabaseQuery, fmt.Sprintf("database %s failed", operation)).
		WithDetail("operation", operation)
}

// Is checks if any error in the chain carries the given code
func Is(err error, code ErrorCode) bool {
	return stderrors.Is(err, &AppError{Code: code})
}

// GetCode extracts the first error code found in the chain
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// GetHTTPCode extracts the HTTP status code from an error
func GetHTTPCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.GetHTTPCode()
	}
	return http.StatusInternalServerError
}

// RawPayload returns the first raw backend payload attached anywhere in the chain
func RawPayload(err error) map[string]interface{} {
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if appErr, ok := e.(*AppError); ok && appErr.Raw != nil {
			return appErr.Raw
		}
	}
	return nil
}
