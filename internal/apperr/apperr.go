// Package apperr defines the typed error kinds that cross the HTTP boundary.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for status-code mapping at the HTTP boundary.
type Kind string

const (
	KindBadRequest   Kind = "bad-request"
	KindUnauthorized Kind = "unauthorized"
	KindLocked       Kind = "locked"
	KindConflict     Kind = "conflict"
	KindUnavailable  Kind = "unavailable"
	KindInternal     Kind = "internal"
)

// Error is the typed error carried from logic down to the handler boundary.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func BadRequest(message string) *Error   { return New(KindBadRequest, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Locked(message string) *Error       { return New(KindLocked, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }
func Unavailable(message string) *Error  { return New(KindUnavailable, message) }
func Internal(message string) *Error     { return New(KindInternal, message) }

// StatusCode maps an error kind to its HTTP status code.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindBadRequest:
			return http.StatusBadRequest
		case KindUnauthorized:
			return http.StatusUnauthorized
		case KindLocked:
			return http.StatusForbidden
		case KindConflict:
			return http.StatusConflict
		case KindUnavailable:
			return http.StatusServiceUnavailable
		case KindInternal:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// Body is the JSON error envelope returned on every failure path.
type Body struct {
	Error string `json:"error"`
}

// Handler converts any error returned by a logic layer into the (status, body)
// pair go-zero's httpx.ErrorCtx boundary expects.
func Handler(err error) (int, interface{}) {
	return StatusCode(err), Body{Error: err.Error()}
}
