/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a database, container, or document does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when creating a resource that already exists
	ErrConflict = errors.New("resource conflict")

	// ErrPreconditionFailed is returned when a conditional write loses its race
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrInvalidInput is returned when input validation fails before dispatch
	ErrInvalidInput = errors.New("invalid input")
)

// Error represents a failure reported by the store. It carries the HTTP
// status code of the response so callers can branch programmatically, and
// matches the corresponding sentinel through errors.Is.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status code %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("status code %d", e.StatusCode)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrPreconditionFailed:
		return e.StatusCode == http.StatusPreconditionFailed
	}
	return false
}

// ValidationError represents an input validation error raised locally,
// before any request is dispatched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Problem is the JSON body the store attaches to failed responses.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewProblem builds the wire body for a failed response.
func NewProblem(statusCode int, message string) Problem {
	return Problem{Code: codeForStatus(statusCode), Message: message}
}

func codeForStatus(statusCode int) string {
	if text := http.StatusText(statusCode); text != "" {
		return strings.ReplaceAll(text, " ", "")
	}
	return fmt.Sprintf("Status%d", statusCode)
}

// Helper functions for creating errors

// NewError creates an Error for an HTTP status code
func NewError(statusCode int, message string) error {
	return &Error{StatusCode: statusCode, Message: message}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// FromResponse builds the Error for a non-success response, reading the
// problem body when one is present.
func FromResponse(statusCode int, body []byte) error {
	e := &Error{StatusCode: statusCode}
	var p Problem
	if len(body) > 0 && json.Unmarshal(body, &p) == nil && p.Message != "" {
		e.Message = p.Message
	} else {
		e.Message = http.StatusText(statusCode)
	}
	return e
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsPreconditionFailed checks if an error is a precondition failure
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// StatusCode returns the HTTP status code carried by err, or 0 when err
// did not originate from a store response.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
