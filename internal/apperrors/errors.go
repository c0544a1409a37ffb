// Package apperrors maps failures onto the HTTP error envelope and scrubs
// secrets out of messages before they leave the process.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is a short machine-readable error kind reported in the envelope's
// error.type field.
type Code string

const (
	CodeDecodeFailed Code = "DecodeError"
	CodeUpstream     Code = "UpstreamError"
	CodeInternal     Code = "InternalError"
)

// Error is an application error with a code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error.
func New(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// ErrorDetail is the inner object of ErrorResponse.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Context string `json:"context"`
}

// ErrorResponse is the standardized error envelope. Timestamp is always null.
type ErrorResponse struct {
	Error     ErrorDetail `json:"error"`
	Success   bool        `json:"success"`
	Timestamp *string     `json:"timestamp"`
}

// statusRule maps a lower-case substring of the error message to a status.
type statusRule struct {
	substr string
	status int
}

// statusRules are checked in order; the first match wins. Keyword matching
// is imprecise: "invalid upstream timeout" maps to 400.
var statusRules = []statusRule{
	{"validation", http.StatusBadRequest},
	{"invalid", http.StatusBadRequest},
	{"not found", http.StatusNotFound},
	{"unauthorized", http.StatusUnauthorized},
	{"permission", http.StatusUnauthorized},
	{"timeout", http.StatusRequestTimeout},
}

// StatusFor picks an HTTP status for message using statusRules.
func StatusFor(message string) int {
	lower := strings.ToLower(message)
	for _, r := range statusRules {
		if strings.Contains(lower, r.substr) {
			return r.status
		}
	}
	return http.StatusInternalServerError
}

// Translate converts err into a status code and error envelope. context is a
// short label describing what was being attempted.
func Translate(err error, context string) (int, ErrorResponse) {
	message := SanitizeMessage(err.Error())
	return StatusFor(message), ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    TypeName(err),
			Context: context,
		},
		Success: false,
	}
}

// TypeName reports the Code of the first *Error in err's chain, or the
// dynamic Go type of err.
func TypeName(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return string(appErr.Code)
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
