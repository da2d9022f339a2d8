// Package httperr defines the gateway's client-facing error contract: a
// small taxonomy of domain errors and the single translation boundary that
// normalizes every failure into one response shape.
package httperr

import "net/http"

// Error is a domain failure with an explicit client-facing status. Its
// message is shown to the user as-is for client-class statuses; the
// translation boundary redacts it for server-class ones.
type Error struct {
	Status  int
	Message string
	ErrType string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, ErrType: "BadRequest"}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message, ErrType: "NotFound"}
}

func ServiceUnavailable(message string) *Error {
	return &Error{Status: http.StatusServiceUnavailable, Message: message, ErrType: "ServiceUnavailable"}
}

func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, ErrType: "InternalServerError"}
}
