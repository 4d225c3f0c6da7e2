// Package apperr defines the closed set of error kinds the API surfaces.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeUpstreamUnavailable    = "UPSTREAM_UNAVAILABLE"
	CodePersistenceUnavailable = "PERSISTENCE_UNAVAILABLE"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message, Status: http.StatusNotFound}
}

func InvalidInput(message string) *Error {
	return &Error{Code: CodeInvalidInput, Message: message, Status: http.StatusBadRequest}
}

func UpstreamUnavailable(message string, err error) *Error {
	return &Error{Code: CodeUpstreamUnavailable, Message: message, Status: http.StatusBadGateway, Err: err}
}

func PersistenceUnavailable(message string, err error) *Error {
	return &Error{Code: CodePersistenceUnavailable, Message: message, Status: http.StatusInternalServerError, Err: err}
}

// From returns err as an *Error, wrapping unknown errors as persistence
// failures, which is the only unclassified failure mode left in the system.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return PersistenceUnavailable("internal error", err)
}
