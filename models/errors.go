package models

import (
	"errors"
	"fmt"
	"log"
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation_error"
	KindAuth       ErrorKind = "unauthenticated"
	KindNotFound   ErrorKind = "not_found"
	KindStorage    ErrorKind = "storage_error"
)

// Error is the failure type every service operation returns. Message is safe
// to show to clients; Err holds internal detail and is never serialized.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func AuthError(msg string) *Error {
	return &Error{Kind: KindAuth, Message: msg}
}

func NotFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func StorageError(err error) *Error {
	return &Error{Kind: KindStorage, Message: "Something went wrong", Err: err}
}

// WrapStorage logs a backend failure under op and returns the generic client
// error. Errors that are already typed pass through unchanged.
func WrapStorage(op string, err error) error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	log.Printf("%s: %v", op, err)
	return StorageError(fmt.Errorf("%s: %w", op, err))
}

// KindOf returns the kind of err, treating anything untyped as a storage failure.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
