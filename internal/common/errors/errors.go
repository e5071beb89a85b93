// Package errors provides standardized error types for notification handlers
// and the callable client protocol.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeRecordLookupFailed     ErrorCode = "RECORD_LOOKUP_FAILED"
	ErrCodePayloadParseFailed     ErrorCode = "PAYLOAD_PARSE_FAILED"
	ErrCodeConfigInvalid          ErrorCode = "CONFIG_INVALID"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// NewNotificationSendFailedError wraps a dispatch failure for one notification kind.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRecordLookupFailedError wraps a database failure while resolving a related record.
func NewRecordLookupFailedError(collection, id string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordLookupFailed,
		Message:   "Related record lookup failed",
		Details:   fmt.Sprintf("collection: %s, id: %s, error: %s", collection, id, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewPayloadParseFailedError reports a trigger payload that could not be decoded.
func NewPayloadParseFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadParseFailed,
		Message:   "Trigger payload could not be parsed",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewConfigInvalidError reports a configuration problem detected at startup.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid configuration: " + details,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// GetErrorCode extracts the code of a StandardError anywhere in the chain.
func GetErrorCode(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "RECORD"):
		return "DATABASE"
	case strings.Contains(codeStr, "PAYLOAD"), strings.Contains(codeStr, "CONFIG"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// ==========================
// 2. Callable Protocol Errors
// ==========================

// CallableStatus is the status string returned to callable clients.
type CallableStatus string

const (
	StatusUnauthenticated CallableStatus = "UNAUTHENTICATED"
	StatusInvalidArgument CallableStatus = "INVALID_ARGUMENT"
	StatusInternal        CallableStatus = "INTERNAL"
)

// CallableError is the only error shape that crosses the callable boundary.
// It never carries transport or database detail.
type CallableError struct {
	Status  CallableStatus `json:"status"`
	Message string         `json:"message"`
}

func (e *CallableError) Error() string {
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// HTTPStatus maps the callable status to the HTTP response code.
func (e *CallableError) HTTPStatus() int {
	switch e.Status {
	case StatusUnauthenticated:
		return http.StatusUnauthorized
	case StatusInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NewUnauthenticatedError() *CallableError {
	return &CallableError{Status: StatusUnauthenticated, Message: "User must be authenticated"}
}

func NewInvalidArgumentError(message string) *CallableError {
	if message == "" {
		message = "Missing required parameters"
	}
	return &CallableError{Status: StatusInvalidArgument, Message: message}
}

func NewInternalError() *CallableError {
	return &CallableError{Status: StatusInternal, Message: "Failed to send email"}
}

// AsCallableError converts any error into a CallableError, collapsing
// everything that is not already one into INTERNAL.
func AsCallableError(err error) *CallableError {
	var ce *CallableError
	if errors.As(err, &ce) {
		return ce
	}
	return NewInternalError()
}
