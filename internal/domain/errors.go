// Package domain defines core types, interfaces, and errors for the ingestion engine.
package domain

import "fmt"

// NotFoundError indicates a missing file, sheet, column, or out-of-range row.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input. Messages carry a corrective
// suggestion where one exists.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConnectionError indicates an unreachable or rejecting remote database.
// Messages may name the database family and host, never the connection string.
type ConnectionError struct {
	Message string
}

func (e *ConnectionError) Error() string { return e.Message }

// SecurityError indicates a refused statement (disallowed SQL verb).
type SecurityError struct {
	Message string
}

func (e *SecurityError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConnection creates a ConnectionError with a formatted message.
func ErrConnection(format string, args ...interface{}) *ConnectionError {
	return &ConnectionError{Message: fmt.Sprintf(format, args...)}
}

// ErrSecurity creates a SecurityError with a formatted message.
func ErrSecurity(format string, args ...interface{}) *SecurityError {
	return &SecurityError{Message: fmt.Sprintf(format, args...)}
}
