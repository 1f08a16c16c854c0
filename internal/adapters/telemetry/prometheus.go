package telemetry

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusTelemetry implements Telemetry using Prometheus metrics on a
// private registry.
type PrometheusTelemetry struct {
	registry *prometheus.Registry

	queryDuration   *prometheus.HistogramVec
	queryTotal      *prometheus.CounterVec
	queryRows       *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPrometheusTelemetry creates a new Prometheus telemetry adapter.
func NewPrometheusTelemetry(config *Config) *PrometheusTelemetry {
	ns := "cdi"
	if config != nil && config.Namespace != "" {
		ns = config.Namespace
	}

	p := &PrometheusTelemetry{
		registry: prometheus.NewRegistry(),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "query_duration_seconds",
			Help:      "Database query latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"operation"}),
		queryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "queries_total",
			Help:      "Database queries by outcome.",
		}, []string{"operation", "status"}),
		queryRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "query_rows_total",
			Help:      "Rows returned by database queries.",
		}, []string{"operation"}),
		errorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "errors_total",
			Help:      "Errors surfaced to the user as warnings.",
		}, []string{"operation"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	p.registry.MustRegister(
		p.queryDuration, p.queryTotal, p.queryRows, p.errorTotal,
		p.requestTotal, p.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// RecordQuery records a query execution.
func (p *PrometheusTelemetry) RecordQuery(ctx context.Context, info QueryInfo) {
	status := "success"
	if !info.Success {
		status = "error"
	}

	p.queryDuration.WithLabelValues(info.Operation).Observe(info.Duration.Seconds())
	p.queryTotal.WithLabelValues(info.Operation, status).Inc()
	if info.Rows > 0 {
		p.queryRows.WithLabelValues(info.Operation).Add(float64(info.Rows))
	}
}

// RecordError records an error.
func (p *PrometheusTelemetry) RecordError(ctx context.Context, info ErrorInfo) {
	p.errorTotal.WithLabelValues(info.Operation).Inc()
}

// RecordRequest records one HTTP request.
func (p *PrometheusTelemetry) RecordRequest(ctx context.Context, info RequestInfo) {
	p.requestTotal.WithLabelValues(info.Route, strconv.Itoa(info.Status)).Inc()
	p.requestDuration.WithLabelValues(info.Route).Observe(info.Duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusTelemetry) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the private registry.
func (p *PrometheusTelemetry) Registry() *prometheus.Registry {
	return p.registry
}

// Close closes the telemetry adapter.
func (p *PrometheusTelemetry) Close(ctx context.Context) error {
	return nil
}

// Ensure PrometheusTelemetry implements Telemetry interface.
var _ Telemetry = (*PrometheusTelemetry)(nil)
