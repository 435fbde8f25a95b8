// Package apperr defines the error kinds surfaced to API clients.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindFormat     Kind = "format"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindTransient  Kind = "transient"
	KindInternal   Kind = "internal"
)

// Error carries a kind, a user-facing message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error { return newf(KindValidation, format, args...) }
func Format(format string, args ...any) error     { return newf(KindFormat, format, args...) }
func Auth(format string, args ...any) error       { return newf(KindAuth, format, args...) }
func NotFound(format string, args ...any) error   { return newf(KindNotFound, format, args...) }

// Transient wraps a collaborator failure the caller may retry.
func Transient(err error, msg string) error {
	return &Error{Kind: KindTransient, Msg: msg, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}
