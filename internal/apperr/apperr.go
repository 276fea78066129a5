// Package apperr defines the error taxonomy shared by all services and the
// boundary that converts those errors into HTTP responses.
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Error is a domain failure carrying an HTTP-like status code and a message
// safe to show to the caller.
type Error struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an Error with the given code. An empty message falls back to
// the standard status text.
func New(code int, message string) *Error {
	if message == "" {
		message = http.StatusText(code)
	}
	return &Error{Code: code, Message: message}
}

// BadRequest signals missing or malformed input.
func BadRequest(message string) *Error { return New(http.StatusBadRequest, message) }

// Unauthorized signals failed or stale authentication.
func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }

// NotFound signals an unknown id, email or token.
func NotFound(message string) *Error { return New(http.StatusNotFound, message) }

// Conflict signals a duplicate email or an already-verified account.
func Conflict(message string) *Error { return New(http.StatusConflict, message) }

// Write converts err into a JSON error response. Domain errors keep their
// code and message; anything else is logged and surfaced as a generic 500 so
// internal details never reach the caller.
func Write(w http.ResponseWriter, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		log.Error().Err(err).Msg("Unhandled server error")
		appErr = New(http.StatusInternalServerError, "Internal server error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	json.NewEncoder(w).Encode(appErr)
}
