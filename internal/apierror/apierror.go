// Package apierror holds the JSON error envelopes the browser client expects.
// Both types implement huma.StatusError, so handlers return them directly and
// huma writes them unchanged.
package apierror

import "net/http"

// MessageError renders as {"message": ...}, or {"success": false, "message": ...}
// when Success is set.
type MessageError struct {
	Status  int    `json:"-"`
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message"`
}

func (e *MessageError) Error() string { return e.Message }

func (e *MessageError) GetStatus() int { return e.Status }

// Message returns a {message} envelope.
func Message(status int, msg string) *MessageError {
	return &MessageError{Status: status, Message: msg}
}

// Failure returns a {success: false, message} envelope.
func Failure(status int, msg string) *MessageError {
	success := false

	return &MessageError{Status: status, Success: &success, Message: msg}
}

// Error renders as {"error": ...}.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *Error) Error() string { return e.Message }

func (e *Error) GetStatus() int { return e.Status }

// New returns an {error} envelope.
func New(status int, msg string) *Error {
	return &Error{Status: status, Message: msg}
}

// Unavailable is the {error} envelope for backend faults.
func Unavailable() *Error {
	return New(http.StatusServiceUnavailable, "service unavailable")
}
