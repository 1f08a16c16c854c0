package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cdi-explorer/cdi/internal/core/query/domain"
	"github.com/cdi-explorer/cdi/internal/core/render"
	"github.com/cdi-explorer/cdi/internal/core/schema"
	"github.com/cdi-explorer/cdi/internal/service"
)

// page is the data behind templates/index.html.
type page struct {
	Title      string
	Dimensions []dimensionField
	ChartKinds []chartOption
	X, Y       string
	Columns    []string

	SQL  string
	Args []string

	Table    render.Table
	Hidden   int
	ChartURL string
	Chart    *render.Chart
	State    string
	Fields   []hiddenField

	ExportURL  string
	ExportName string
	Message    string
	Warnings   []string

	Custom *customSection
}

type dimensionField struct {
	Name     string
	Label    string
	Values   []string
	Selected string
}

type chartOption struct {
	Value    string
	Title    string
	Selected bool
}

type hiddenField struct {
	Name  string
	Value string
}

type customSection struct {
	SQL      string
	Table    render.Table
	Hidden   int
	Warnings []string
}

// newPage loads the filter options and marks the current selection.
func (s *Server) newPage(ctx context.Context, sel domain.Selection, req *render.ChartRequest) *page {
	sch := s.explorer.Schema()
	opts := s.explorer.Options(ctx)

	p := &page{
		Title:      "Chronic Disease Indicators",
		ExportName: s.exportAs,
		Warnings:   append([]string(nil), opts.Warnings...),
	}
	for _, set := range opts.Sets {
		p.Dimensions = append(p.Dimensions, dimensionField{
			Name:     set.Dimension.Name,
			Label:    set.Dimension.DisplayLabel(),
			Values:   set.Values,
			Selected: sel.Value(set.Dimension.Name),
		})
	}

	kind := render.Bar
	if req != nil {
		kind = req.Kind
		p.X, p.Y = req.X, req.Y
	}
	for _, k := range render.ChartKinds {
		p.ChartKinds = append(p.ChartKinds, chartOption{Value: string(k), Title: k.Title(), Selected: k == kind})
	}

	p.State = encodeState(sel, sch, req)
	p.ExportURL = "/export.csv?" + p.State
	p.Fields = stateFields(sel, sch, req)
	return p
}

// showFiltered places a filtered outcome and its view on the page.
func (s *Server) showFiltered(p *page, outcome *service.Outcome, req *render.ChartRequest) {
	if outcome.Query != nil {
		p.SQL = outcome.Query.SQL.Query
		for _, a := range outcome.Query.SQL.Args {
			p.Args = append(p.Args, fmt.Sprint(a))
		}
	}
	p.Warnings = append(p.Warnings, outcome.Warnings...)

	view := s.explorer.Renderer().Render(outcome.Result, req)
	p.Table, p.Hidden = capRows(view.Table)
	p.Columns = view.Table.Columns
	p.Warnings = appendNew(p.Warnings, view.Warnings...)

	if view.Chart != nil {
		p.Chart = view.Chart
		p.ChartURL = "/chart.png?" + p.State
	}
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, p *page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.ExecuteTemplate(w, "index.html", p); err != nil {
		logger(r.Context()).Error("Failed to render page", "error", err)
	}
}

func stateFields(sel domain.Selection, sch *schema.Schema, req *render.ChartRequest) []hiddenField {
	var fields []hiddenField
	for _, d := range sch.Dimensions {
		if v := sel.Value(d.Name); !domain.IsAll(v) {
			fields = append(fields, hiddenField{Name: d.Name, Value: v})
		}
	}
	if req != nil {
		fields = append(fields, hiddenField{Name: fieldChart, Value: string(req.Kind)})
		if req.X != "" {
			fields = append(fields, hiddenField{Name: fieldX, Value: req.X})
		}
		if req.Y != "" {
			fields = append(fields, hiddenField{Name: fieldY, Value: req.Y})
		}
	}
	return fields
}

func capRows(t render.Table) (render.Table, int) {
	if len(t.Rows) <= MaxPageRows {
		return t, 0
	}
	return render.Table{Columns: t.Columns, Rows: t.Rows[:MaxPageRows]}, len(t.Rows) - MaxPageRows
}

// appendNew appends warnings not already present.
func appendNew(list []string, warnings ...string) []string {
	for _, w := range warnings {
		seen := false
		for _, existing := range list {
			if existing == w {
				seen = true
				break
			}
		}
		if !seen {
			list = append(list, w)
		}
	}
	return list
}
