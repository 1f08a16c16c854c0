// Package telemetry provides telemetry adapter interfaces.
package telemetry

import (
	"context"
	"net/http"
	"time"
)

// Telemetry defines the telemetry adapter interface.
type Telemetry interface {
	// RecordQuery records a query execution.
	RecordQuery(ctx context.Context, info QueryInfo)

	// RecordError records an error.
	RecordError(ctx context.Context, info ErrorInfo)

	// RecordRequest records one HTTP request.
	RecordRequest(ctx context.Context, info RequestInfo)

	// Handler exposes collected metrics, or nil when there is nothing to expose.
	Handler() http.Handler

	// Close closes the telemetry adapter.
	Close(ctx context.Context) error
}

// QueryInfo contains information about a query.
type QueryInfo struct {
	// Operation is options, filter or custom.
	Operation string

	// Duration is how long the query took.
	Duration time.Duration

	// Success indicates if the query succeeded.
	Success bool

	// Rows is the number of rows returned.
	Rows int
}

// ErrorInfo contains information about an error.
type ErrorInfo struct {
	// Error is the error that occurred.
	Error error

	// Operation is the operation that failed.
	Operation string

	// Query is the SQL query (if applicable).
	Query string
}

// RequestInfo describes a served HTTP request.
type RequestInfo struct {
	Route    string
	Status   int
	Duration time.Duration
}

// Config holds telemetry configuration.
type Config struct {
	// Type is the telemetry type (noop, prometheus).
	Type string

	// Namespace prefixes every metric name.
	Namespace string
}
