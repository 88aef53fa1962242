// Package bookerr defines the opaque error taxonomy shared by the booking
// pipeline and the HTTP surface.
package bookerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of booking failure. Callers should switch on Code,
// never on the formatted message.
type Code string

const (
	CodeInvalid              Code = "INVALID"
	CodeSoldOut              Code = "SOLD_OUT"
	CodeInsufficientCapacity Code = "INSUFFICIENT_CAPACITY"
	CodeConflictCached       Code = "CONFLICT_CACHED"
	CodeConflictVersion      Code = "CONFLICT_VERSION"
	CodeConflictRowLock      Code = "CONFLICT_ROWLOCK"
	CodeSeatsNotFound        Code = "SEATS_NOT_FOUND"
	CodeSeatsUnavailable     Code = "SEATS_UNAVAILABLE"
	CodeUnavailable          Code = "UNAVAILABLE"
)

// Error is the typed error every booking-path function returns instead of a
// bare error value, so the HTTP layer can map it without string matching.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// As extracts a *Error from err, following the standard errors.As contract.
func As(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// HTTPStatus maps a Code to the wire status per the error propagation
// policy: most conflict kinds collapse to 409, UNAVAILABLE is treated as a
// retryable 503 so callers can distinguish "try again" from "this booking is
// permanently impossible".
func HTTPStatus(code Code) int {
	switch code {
	case CodeInvalid:
		return http.StatusBadRequest
	case CodeSoldOut, CodeInsufficientCapacity, CodeConflictCached,
		CodeConflictVersion, CodeConflictRowLock, CodeSeatsNotFound,
		CodeSeatsUnavailable:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
