// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package apperr defines the error taxonomy returned by workflow operations.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow failure.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindAuthorization   Kind = "authorization"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindIncompleteState Kind = "incomplete_state"
	KindInfrastructure  Kind = "infrastructure"
)

// Error is a workflow failure with explanatory data for the caller.
type Error struct {
	Kind    Kind
	Message string
	Data    map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// With attaches a data field and returns the same error.
func (e *Error) With(key string, value any) *Error {
	if e.Data == nil {
		e.Data = make(map[string]any)
	}
	e.Data[key] = value
	return e
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(KindAuthorization, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// Incomplete reports a closure or allocation attempted before every
// enrollment was evaluated. missing is the number still lacking a score.
func Incomplete(missing int, format string, args ...any) *Error {
	return newError(KindIncompleteState, format, args...).With("missing", missing)
}

// Wrap marks err as an infrastructure failure. The message is what callers see.
func Wrap(err error, message string) *Error {
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	return &Error{Kind: KindInfrastructure, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInfrastructure for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInfrastructure
}

// Is reports whether err is a workflow error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
