// Package apperror is the error taxonomy shared by usecases and handlers.
// Usecases return *Error values; handlers translate the Kind into an HTTP
// status and tell the client whether retrying can help.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	InvalidArgument  Kind = "INVALID_ARGUMENT"
	PermissionDenied Kind = "PERMISSION_DENIED"
	NotFound         Kind = "NOT_FOUND"
	Conflict         Kind = "CONFLICT"
	Internal         Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same request may succeed later without
// changes ("try again") as opposed to "fix and resubmit".
func (e *Error) Retryable() bool {
	return e.Kind == Conflict || e.Kind == Internal
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Invalid(msg string) *Error { return New(InvalidArgument, msg) }

func Denied(msg string) *Error { return New(PermissionDenied, msg) }

func Missing(msg string) *Error { return New(NotFound, msg) }

func Conflicting(msg string, err error) *Error { return Wrap(Conflict, msg, err) }

// InternalErr wraps a store or infrastructure failure. The message shown to
// clients stays generic; err is kept for logs.
func InternalErr(err error) *Error {
	return Wrap(Internal, "internal error, please try again", err)
}

// KindOf returns the Kind of err, Internal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// As returns err as *Error, wrapping untyped errors as Internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return InternalErr(err)
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
