package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFilter is returned when a selection names a filter the schema does not define.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrEmptyQuery is returned when a custom query has no text.
	ErrEmptyQuery = errors.New("empty query")

	// ErrNotConnected is returned when a database adapter is used before Connect.
	ErrNotConnected = errors.New("database not connected")

	// ErrInvalidIdentifier is returned for table or column names that cannot be
	// placed in SQL text.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// QueryError represents a query execution error with context.
type QueryError struct {
	Operation string
	Query     string
	Cause     error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// NewQueryError creates a new QueryError.
func NewQueryError(op, query string, cause error) *QueryError {
	return &QueryError{
		Operation: op,
		Query:     query,
		Cause:     cause,
	}
}
