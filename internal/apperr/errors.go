// Package apperr defines the error taxonomy shared by the analytics client,
// the chart adapters and the dashboard controller.
//
// Every failure that reaches a capability boundary is an *Error carrying a
// Code. Callers match categories with errors.Is against the Err* sentinels and
// read details with errors.As.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies a failure category.
type Code string

const (
	CodeValidation         Code = "VALIDATION"
	CodeNetwork            Code = "NETWORK"
	CodeService            Code = "SERVICE"
	CodeMalformedResponse  Code = "MALFORMED_RESPONSE"
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	CodeMissingMetric      Code = "MISSING_METRIC"
	CodeStale              Code = "STALE"
)

func (c Code) String() string { return string(c) }

// Error is the single structured error type of the dashboard.
type Error struct {
	Code    Code
	Message string

	// StatusCode is the upstream HTTP status for CodeService errors.
	StatusCode int

	Cause error
}

// Sentinels for errors.Is. They match any *Error of the same code.
var (
	ErrValidation         = &Error{Code: CodeValidation}
	ErrNetwork            = &Error{Code: CodeNetwork}
	ErrService            = &Error{Code: CodeService}
	ErrMalformedResponse  = &Error{Code: CodeMalformedResponse}
	ErrInvariantViolation = &Error{Code: CodeInvariantViolation}
	ErrMissingMetric      = &Error{Code: CodeMissingMetric}
	ErrStale              = &Error{Code: CodeStale}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a sentinel of the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.StatusCode == 0 && t.Code == e.Code
}

// New returns an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error with a formatted message and an underlying cause.
func Wrap(cause error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Service builds the error for a non-2xx upstream response.
func Service(statusCode int, message string) *Error {
	return &Error{Code: CodeService, Message: message, StatusCode: statusCode}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage turns err into the text shown to the user for a failed action,
// e.g. action "optimize portfolio".
func UserMessage(action string, err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return fmt.Sprintf("Failed to %s. Please try again.", action)
	}
	switch e.Code {
	case CodeValidation:
		return e.Message
	case CodeNetwork:
		return fmt.Sprintf("Failed to %s: the analytics service is unreachable. Please try again.", action)
	case CodeService:
		if e.Message != "" {
			return fmt.Sprintf("Failed to %s: %s", action, e.Message)
		}
		return fmt.Sprintf("Failed to %s: the analytics service returned HTTP %d.", action, e.StatusCode)
	case CodeStale:
		return "A newer request superseded this one."
	default:
		return fmt.Sprintf("Failed to %s: unexpected response from the analytics service (%s).", action, e.Message)
	}
}
