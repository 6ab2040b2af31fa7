package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the pipeline.
type ErrorCode string

// Hard failure codes. A hard failure terminates a job immediately and is
// never retried by the controller.
const (
	ErrNetwork           ErrorCode = "NETWORK"
	ErrQuotaExceeded     ErrorCode = "QUOTA_EXCEEDED"
	ErrMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrForbidden         ErrorCode = "FORBIDDEN"
	ErrRateLimited       ErrorCode = "RATE_LIMITED"
	ErrUpstreamTimeout   ErrorCode = "UPSTREAM_TIMEOUT"
	ErrUpstreamError     ErrorCode = "UPSTREAM_ERROR"
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"
)

// Configuration failure codes. These fail fast before any external call.
const (
	ErrMissingCredentials ErrorCode = "MISSING_CREDENTIALS"
	ErrUnknownSchema      ErrorCode = "UNKNOWN_SCHEMA"
	ErrUnsupportedImage   ErrorCode = "UNSUPPORTED_IMAGE"
	ErrInvalidConfig      ErrorCode = "INVALID_CONFIG"
)

// FailureClass groups error codes by how the controller reacts to them.
type FailureClass string

const (
	// ClassHard covers infrastructure-level failures (network, quota,
	// unparsable response). Terminates the job, surfaced verbatim.
	ClassHard FailureClass = "hard"
	// ClassConfiguration covers failures detected before any external
	// call (missing credentials, unknown schema id).
	ClassConfiguration FailureClass = "configuration"
)

// Error represents a structured failure with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Class returns the failure class of the error's code.
func (e *Error) Class() FailureClass {
	switch e.Code {
	case ErrMissingCredentials, ErrUnknownSchema, ErrUnsupportedImage, ErrInvalidConfig:
		return ClassConfiguration
	default:
		return ClassHard
	}
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// GetErrorCode extracts the error code from an error, unwrapping as needed.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsConfiguration reports whether err is a configuration failure.
func IsConfiguration(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Class() == ClassConfiguration
}
