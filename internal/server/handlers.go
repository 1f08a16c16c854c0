package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cdi-explorer/cdi/internal/core/query/domain"
	"github.com/cdi-explorer/cdi/internal/core/render"
	"github.com/cdi-explorer/cdi/internal/core/result"
	"github.com/cdi-explorer/cdi/internal/service"
)

// pageState reads the selection and chart choice from values. Invalid input
// becomes warnings and falls back to no filters or a bar chart.
func (s *Server) pageState(values url.Values) (domain.Selection, *render.ChartRequest, []string) {
	var warnings []string

	sel, err := selectionFrom(values, s.explorer.Schema())
	if err != nil {
		warnings = append(warnings, err.Error())
		sel = domain.Selection{}
	}

	req, err := chartFrom(values)
	if err != nil {
		warnings = append(warnings, err.Error())
		req = &render.ChartRequest{Kind: render.Bar}
	}
	return sel, req, warnings
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sel, req, warnings := s.pageState(r.URL.Query())

	p := s.newPage(r.Context(), sel, req)
	p.Warnings = append(p.Warnings, warnings...)
	s.showFiltered(p, s.explorer.Filter(r.Context(), sel), req)

	s.renderPage(w, r, http.StatusOK, p)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sel, req, warnings := s.pageState(r.PostForm)

	p := s.newPage(r.Context(), sel, req)
	p.Warnings = append(p.Warnings, warnings...)

	outcome := s.explorer.Filter(r.Context(), sel)
	s.showFiltered(p, outcome, req)

	name, err := exportName(r.PostForm.Get(fieldFile), s.exportAs)
	switch {
	case err != nil:
		p.Warnings = append(p.Warnings, err.Error())
	case outcome.Failed():
	default:
		var buf bytes.Buffer
		if err := result.WriteCSV(&buf, outcome.Result); err != nil {
			p.Warnings = append(p.Warnings, fmt.Sprintf("Export failed: %v", err))
			break
		}
		if err := s.storage.Write(r.Context(), name, buf.Bytes()); err != nil {
			logger(r.Context()).Error("Export failed", "file", name, "error", err)
			p.Warnings = append(p.Warnings, fmt.Sprintf("Export failed: %v", err))
			break
		}
		p.ExportName = name
		p.Message = fmt.Sprintf("Data exported to %s", s.storage.Location(name))
	}

	s.renderPage(w, r, http.StatusOK, p)
}

func (s *Server) handleSQL(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sel, req, warnings := s.pageState(r.PostForm)

	p := s.newPage(r.Context(), sel, req)
	p.Warnings = append(p.Warnings, warnings...)
	s.showFiltered(p, s.explorer.Filter(r.Context(), sel), req)

	query := r.PostForm.Get(fieldSQL)
	outcome := s.explorer.Custom(r.Context(), query)
	custom := &customSection{SQL: query, Warnings: outcome.Warnings}
	if !outcome.Failed() {
		view := s.explorer.Renderer().Render(outcome.Result, nil)
		custom.Table, custom.Hidden = capRows(view.Table)
		custom.Warnings = append(custom.Warnings, view.Warnings...)
	}
	p.Custom = custom

	s.renderPage(w, r, http.StatusOK, p)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format := render.PNG
	if strings.HasSuffix(r.URL.Path, ".svg") {
		format = render.SVG
	}

	q := r.URL.Query()
	sel, err := selectionFrom(q, s.explorer.Schema())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, err := chartFrom(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req == nil {
		req = &render.ChartRequest{Kind: render.Bar}
	}

	outcome := s.explorer.Filter(r.Context(), sel)
	if outcome.Failed() {
		http.Error(w, strings.Join(outcome.Warnings, "\n"), http.StatusBadGateway)
		return
	}

	view := s.explorer.Renderer().Render(outcome.Result, req)
	if view.Chart == nil {
		http.Error(w, strings.Join(view.Warnings, "\n"), http.StatusUnprocessableEntity)
		return
	}

	width, _ := strconv.Atoi(q.Get("width"))
	height, _ := strconv.Atoi(q.Get("height"))

	var buf bytes.Buffer
	if err := render.WriteImage(&buf, view.Chart, format, width, height); err != nil {
		logger(r.Context()).Error("Failed to draw chart", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := selectionFrom(q, s.explorer.Schema())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name, err := exportName(q.Get(fieldFile), s.exportAs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	outcome := s.explorer.Filter(r.Context(), sel)
	if outcome.Failed() {
		http.Error(w, strings.Join(outcome.Warnings, "\n"), http.StatusBadGateway)
		return
	}

	var buf bytes.Buffer
	if err := result.WriteCSV(&buf, outcome.Result); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(buf.Bytes())
}

type optionsResponse struct {
	Dimensions []dimensionOptions `json:"dimensions"`
	Warnings   []string           `json:"warnings"`
}

type dimensionOptions struct {
	Name   string   `json:"name"`
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

func (s *Server) handleAPIOptions(w http.ResponseWriter, r *http.Request) {
	opts := s.explorer.Options(r.Context())

	resp := optionsResponse{Warnings: nonNil(opts.Warnings)}
	for _, set := range opts.Sets {
		resp.Dimensions = append(resp.Dimensions, dimensionOptions{
			Name:   set.Dimension.Name,
			Label:  set.Dimension.DisplayLabel(),
			Values: set.Values,
		})
	}
	writeJSON(w, r, http.StatusOK, resp)
}

type dataResponse struct {
	SQL        string          `json:"sql"`
	Args       []interface{}   `json:"args"`
	Columns    []string        `json:"columns"`
	Rows       [][]interface{} `json:"rows"`
	Chart      *render.Chart   `json:"chart,omitempty"`
	Warnings   []string        `json:"warnings"`
	DurationMs float64         `json:"duration_ms"`
}

func (s *Server) handleAPIData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := selectionFrom(q, s.explorer.Schema())
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req *render.ChartRequest
	if q.Get(fieldChart) != "" {
		if req, err = chartFrom(q); err != nil {
			writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	outcome := s.explorer.Filter(r.Context(), sel)
	view := s.explorer.Renderer().Render(outcome.Result, req)

	resp := dataResponse{
		Columns:    outcome.Result.Columns,
		Rows:       jsonRows(outcome.Result),
		Chart:      view.Chart,
		Warnings:   appendNew(nonNil(outcome.Warnings), view.Warnings...),
		DurationMs: float64(outcome.Duration) / float64(time.Millisecond),
	}
	if outcome.Query != nil {
		resp.SQL = outcome.Query.SQL.Query
		resp.Args = outcome.Query.SQL.Args
	}
	status := http.StatusOK
	if outcome.Failed() {
		status = statusFor(outcome)
	}
	writeJSON(w, r, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.explorer.Ping(ctx); err != nil {
		http.Error(w, "unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte("ok\n"))
}

// statusFor maps a failed outcome to a response code: invalid selections are
// the caller's fault, execution errors are the database's.
func statusFor(outcome *service.Outcome) int {
	if outcome.Query == nil {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger(r.Context()).Error("Failed to encode response", "error", err)
	}
}

// jsonRows converts values JSON cannot encode: NaN and infinities become null.
func jsonRows(set *result.Set) [][]interface{} {
	rows := make([][]interface{}, len(set.Rows))
	for i, row := range set.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
				v = nil
			}
			cells[j] = v
		}
		rows[i] = cells
	}
	return rows
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
