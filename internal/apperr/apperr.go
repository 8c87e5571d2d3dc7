// Package apperr defines the error taxonomy shared by services and handlers.
// Every service failure is one of these kinds; handlers translate them into
// the {statusCode, message} JSON payload at the boundary.
package apperr

import (
	"errors"
	"net/http"
)

// Error is a failure with an associated HTTP status code.
type Error struct {
	Status  int    `json:"statusCode"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// BadRequest signals malformed or missing input.
func BadRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// Unauthorized signals a missing, invalid or expired credential or token.
func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

// NotFound signals an absent entity.
func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

// Conflict signals a uniqueness violation.
func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Message: msg}
}

// TooManyRequests signals that the caller is being rate limited.
func TooManyRequests(msg string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Message: msg}
}

// Internal signals an unexpected failure, e.g. a hashing error.
func Internal(msg string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg}
}

// From extracts the *Error from err, wrapping unknown errors as Internal so
// that nothing leaks an unclassified failure to the client.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal("internal server error")
}

// IsStatus reports whether err carries the given HTTP status code.
func IsStatus(err error, status int) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Status == status
}
