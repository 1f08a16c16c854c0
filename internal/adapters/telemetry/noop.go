package telemetry

import (
	"context"
	"net/http"
)

// NoopTelemetry is a no-op implementation of the Telemetry interface.
type NoopTelemetry struct{}

// NewNoopTelemetry creates a new no-op telemetry adapter.
func NewNoopTelemetry() *NoopTelemetry {
	return &NoopTelemetry{}
}

// RecordQuery does nothing.
func (n *NoopTelemetry) RecordQuery(ctx context.Context, info QueryInfo) {}

// RecordError does nothing.
func (n *NoopTelemetry) RecordError(ctx context.Context, info ErrorInfo) {}

// RecordRequest does nothing.
func (n *NoopTelemetry) RecordRequest(ctx context.Context, info RequestInfo) {}

// Handler returns nil.
func (n *NoopTelemetry) Handler() http.Handler { return nil }

// Close does nothing.
func (n *NoopTelemetry) Close(ctx context.Context) error {
	return nil
}

// Ensure NoopTelemetry implements Telemetry interface.
var _ Telemetry = (*NoopTelemetry)(nil)
