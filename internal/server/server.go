// Package server serves the dashboard: a filter sidebar, the result table,
// chart images, CSV export and custom SQL over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/cdi-explorer/cdi/internal/adapters/storage"
	"github.com/cdi-explorer/cdi/internal/adapters/telemetry"
	"github.com/cdi-explorer/cdi/internal/debug"
	"github.com/cdi-explorer/cdi/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultExportFilename is used when neither the config nor the request names one.
const DefaultExportFilename = "filtered_data.csv"

// MaxPageRows caps the rows rendered into the HTML table.
const MaxPageRows = 500

// Config contains dependencies for creating a dashboard server.
type Config struct {
	// Addr is the listen address, host:port.
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ExportFilename is the default name of exported CSV files.
	ExportFilename string

	// Storage receives files written by POST /export.
	Storage storage.Storage

	// Telemetry records requests and serves /metrics. Nil records nothing.
	Telemetry telemetry.Telemetry
}

// Server is the dashboard HTTP server.
type Server struct {
	explorer  *service.Explorer
	storage   storage.Storage
	telemetry telemetry.Telemetry
	exportAs  string
	pages     *template.Template

	httpServer *http.Server
	listener   net.Listener
}

// New creates a dashboard server.
func New(explorer *service.Explorer, cfg Config) (*Server, error) {
	pages, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		explorer:  explorer,
		storage:   cfg.Storage,
		telemetry: cfg.Telemetry,
		exportAs:  cfg.ExportFilename,
		pages:     pages,
	}
	if s.storage == nil {
		s.storage = storage.NewFilesystemStorage(".")
	}
	if s.telemetry == nil {
		s.telemetry = telemetry.NewNoopTelemetry()
	}
	if s.exportAs == "" {
		s.exportAs = DefaultExportFilename
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /chart.png", s.handleChart)
	mux.HandleFunc("GET /chart.svg", s.handleChart)
	mux.HandleFunc("GET /export.csv", s.handleDownload)
	mux.HandleFunc("POST /export", s.handleExport)
	mux.HandleFunc("POST /sql", s.handleSQL)
	mux.HandleFunc("GET /api/options", s.handleAPIOptions)
	mux.HandleFunc("GET /api/data", s.handleAPIData)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if metrics := s.telemetry.Handler(); metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return withRequestID(withAccessLog(s.telemetry, mux))
}

// Start binds the listen address and serves in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln

	debug.Info("Starting dashboard server", "addr", ln.Addr().String())

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			debug.Error("Dashboard server error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	debug.Info("Stopping dashboard server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// URL returns the server URL.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}
