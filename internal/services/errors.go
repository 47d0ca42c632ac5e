// Package services defines the business logic for skill matching, connection
// requests, conversations, and chat history. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
)

// Connection and conversation errors.
var (
	// ErrInvalidTarget is returned when a user addresses a request (or a
	// conversation) to themselves.
	ErrInvalidTarget = errors.New("invalid target user")

	// ErrDuplicateActive is returned when the ordered pair already has a
	// pending or accepted request.
	ErrDuplicateActive = errors.New("an active request already exists for this pair")

	// ErrNotFound indicates that the addressed user, skill, request, or
	// conversation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized is returned when the actor is not the party allowed to
	// perform the operation.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrAlreadyProcessed is returned when a request has left the pending
	// state, including when a concurrent caller won the transition.
	ErrAlreadyProcessed = errors.New("request already processed")

	// ErrInvalidAction is returned for an action token other than accept,
	// reject, or cancel.
	ErrInvalidAction = errors.New("invalid action")
)

// Input errors.
var (
	// ErrEmptyInput is returned when a required text field is blank after
	// trimming.
	ErrEmptyInput = errors.New("input is empty")

	// ErrTooLong is returned when a text field exceeds its configured rune
	// limit.
	ErrTooLong = errors.New("input too long")

	// ErrInvalidLevel is returned for a proficiency level outside
	// beginner, intermediate, advanced.
	ErrInvalidLevel = errors.New("level must be beginner, intermediate, or advanced")
)

// ErrStorageUnavailable marks failures of the backing store. The operation
// did not take effect. Concrete errors are *StorageError values.
var ErrStorageUnavailable = errors.New("storage unavailable")

// StorageError wraps a store failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStorageUnavailable, e.Err)
}

// Unwrap exposes the underlying store error.
func (e *StorageError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorageUnavailable) match any StorageError.
func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

// storageErr wraps err unless it is nil or already a service-level error.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) || isServiceError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func isServiceError(err error) bool {
	for _, s := range []error{
		ErrInvalidTarget, ErrDuplicateActive, ErrNotFound, ErrNotAuthorized,
		ErrAlreadyProcessed, ErrInvalidAction, ErrEmptyInput, ErrTooLong, ErrInvalidLevel,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
