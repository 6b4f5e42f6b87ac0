package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aawaaz/civic-portal/internal/repository"
	"go.uber.org/zap"
)

// Code classifies a service failure. Handlers map it to an HTTP status.
type Code string

const (
	CodeInvalidArgument Code = "invalid_argument"
	CodeUnauthorized    Code = "unauthorized"
	CodeForbidden       Code = "forbidden"
	CodeNotFound        Code = "not_found"
	CodeExpired         Code = "expired"
	CodeConflict        Code = "conflict"
	CodeInternal        Code = "internal"
)

// Error is returned by every service operation that fails for a reason the
// caller should see. Message is safe to show to end users.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code, so callers can write
// errors.Is(err, services.ErrNotFound).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is matching
var (
	ErrInvalidArgument = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrUnauthorized    = &Error{Code: CodeUnauthorized, Message: "authentication required"}
	ErrForbidden       = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrExpired         = &Error{Code: CodeExpired, Message: "expired"}
	ErrConflict        = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal        = &Error{Code: CodeInternal, Message: "internal server error"}
)

func invalid(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func unauthorized(msg string) *Error { return &Error{Code: CodeUnauthorized, Message: msg} }
func forbidden(msg string) *Error    { return &Error{Code: CodeForbidden, Message: msg} }
func notFound(msg string) *Error     { return &Error{Code: CodeNotFound, Message: msg} }
func conflict(msg string) *Error     { return &Error{Code: CodeConflict, Message: msg} }

// CodeOf extracts the code of err, defaulting to internal
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf returns the user-facing message for err. Unclassified errors
// never leak their text.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrInternal.Message
}

// lookupErr translates repository errors for a single-record lookup.
// It returns nil when err is not a lookup failure.
func lookupErr(err error, what string) error {
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		return invalid("Invalid %s id", what)
	case errors.Is(err, repository.ErrNotFound):
		return notFound(strings.ToUpper(what[:1]) + what[1:] + " not found")
	}
	return nil
}

// internalErr logs a collaborator failure with context and hides it behind
// a generic message
func internalErr(logger *zap.SugaredLogger, msg string, err error, keysAndValues ...any) error {
	logger.Errorw(msg, append(keysAndValues, "error", err)...)
	return &Error{Code: CodeInternal, Message: msg}
}
