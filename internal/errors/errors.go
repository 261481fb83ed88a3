package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Spinit error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED" // 409
	ErrSpinInProgress   ErrorCode = "SPIN_IN_PROGRESS"  // 409
	ErrEmptyCollection  ErrorCode = "EMPTY_COLLECTION"  // 422
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrPersistence      ErrorCode = "PERSISTENCE"       // 500
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// SpinitError represents a structured error with code, status, and details.
// Title is the short heading shown above Message in the UI.
type SpinitError struct {
	Code    ErrorCode
	Status  int
	Title   string
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *SpinitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *SpinitError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid input (blank title, bad icon, ...).
func NewInvalidRequest(msg string) *SpinitError {
	return &SpinitError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Title:   "Invalid Input",
		Message: msg,
	}
}

// NewValidation creates a 400 error with a custom UI title, e.g. "Missing Title".
func NewValidation(title, msg string) *SpinitError {
	e := NewInvalidRequest(msg)
	e.Title = title
	return e
}

// NewNotFound creates a 404 error for an unknown spinner or option.
func NewNotFound(kind, id string) *SpinitError {
	return &SpinitError{
		Code:    ErrNotFound,
		Status:  404,
		Title:   "Not Found",
		Message: fmt.Sprintf("%s not found: %s", kind, id),
		Details: map[string]any{"kind": kind, "id": id},
	}
}

// NewCapacityExceeded creates a 409 error when a spinner already holds max options.
func NewCapacityExceeded(max int) *SpinitError {
	return &SpinitError{
		Code:    ErrCapacityExceeded,
		Status:  409,
		Title:   "Maximum Limit Reached",
		Message: fmt.Sprintf("You can add a maximum of %d options per spinner.", max),
		Details: map[string]any{"max_options": max},
	}
}

// NewSpinInProgress creates a 409 error when a spin is requested while one is running.
func NewSpinInProgress() *SpinitError {
	return &SpinitError{
		Code:    ErrSpinInProgress,
		Status:  409,
		Title:   "Spinning",
		Message: "a spin is already in progress",
	}
}

// NewEmptyCollection creates a 422 error for spinning a wheel with no options.
func NewEmptyCollection() *SpinitError {
	return &SpinitError{
		Code:    ErrEmptyCollection,
		Status:  422,
		Title:   "No Options",
		Message: "no options to spin",
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *SpinitError {
	return &SpinitError{
		Code:    ErrFileNotFound,
		Status:  404,
		Title:   "Not Found",
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewPersistence wraps a storage read/write failure.
func NewPersistence(op string, err error) *SpinitError {
	msg := op + " failed"
	if err != nil {
		msg = fmt.Sprintf("%s failed: %v", op, err)
	}
	return &SpinitError{
		Code:    ErrPersistence,
		Status:  500,
		Title:   "Storage Error",
		Message: msg,
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SpinitError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SpinitError{
		Code:    ErrInternal,
		Status:  500,
		Title:   "Error",
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a SpinitError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *SpinitError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// As returns err as a *SpinitError, wrapping unknown errors as internal.
func As(err error) *SpinitError {
	var sErr *SpinitError
	if stderrors.As(err, &sErr) {
		return sErr
	}
	return NewInternal(err)
}
