package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// Client errors
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeFlushInProgress  ErrorCode = "FLUSH_IN_PROGRESS"

	// Collaborator errors
	ErrCodeNotifierUnavailable ErrorCode = "NOTIFIER_UNAVAILABLE"
	ErrCodeNotifyFailed        ErrorCode = "NOTIFY_FAILED"
	ErrCodeGitFailed           ErrorCode = "GIT_FAILED"
	ErrCodeGenerationFailed    ErrorCode = "GENERATION_FAILED"
	ErrCodeHistoryError        ErrorCode = "HISTORY_ERROR"

	// Server errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Err        error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of e carrying details
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// New creates a new application error
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: StatusFor(code),
	}
}

// Wrap wraps an existing error with application context
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: StatusFor(code),
		Err:        err,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// StatusFor maps error codes to HTTP status codes
func StatusFor(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrCodeFlushInProgress:
		return http.StatusConflict
	case ErrCodeNotifierUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeNotifyFailed, ErrCodeGitFailed, ErrCodeGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors for convenience

// ValidationError creates a validation error
func ValidationError(message string) *AppError {
	return New(ErrCodeValidationFailed, message)
}

// InvalidRequest creates an invalid request error
func InvalidRequest(message string) *AppError {
	return New(ErrCodeInvalidRequest, message)
}

// FlushInProgress reports that a batch is already being committed
func FlushInProgress() *AppError {
	return New(ErrCodeFlushInProgress, "A commit is already in flight")
}

// NotifierUnavailable reports a disabled or disconnected notifier
func NotifierUnavailable() *AppError {
	return New(ErrCodeNotifierUnavailable, "Notifier is not available")
}

// NotifyFailed creates a notification failure error
func NotifyFailed(err error) *AppError {
	return Wrap(err, ErrCodeNotifyFailed, "Failed to send notification")
}

// GitFailed creates a git failure error
func GitFailed(err error) *AppError {
	return Wrap(err, ErrCodeGitFailed, "Git command failed")
}

// HistoryError creates a history store error
func HistoryError(err error) *AppError {
	return Wrap(err, ErrCodeHistoryError, "History operation failed")
}

// InternalError creates an internal server error
func InternalError(err error) *AppError {
	return Wrap(err, ErrCodeInternalError, "Internal server error")
}
