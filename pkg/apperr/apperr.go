package apperr

import (
	"errors"
	"net/http"
)

// Error is an API-facing error carrying the HTTP status it should be
// surfaced with. Workflows return these; handlers translate them into the
// response envelope without rewording the message.
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Validation reports missing or malformed client input (400).
func Validation(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Conflict reports a uniqueness violation (409).
func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// Upload reports a media collaborator failure (502).
func Upload(message string) *Error {
	return New(http.StatusBadGateway, message)
}

// Internal reports a broken post-condition on our side (500).
func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

// Unauthorized reports bad or missing credentials (401).
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// StatusOf extracts the HTTP status from err, defaulting to 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}
