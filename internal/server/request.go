package server

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cdi-explorer/cdi/internal/core/query/domain"
	"github.com/cdi-explorer/cdi/internal/core/query/filterexpr"
	"github.com/cdi-explorer/cdi/internal/core/render"
	"github.com/cdi-explorer/cdi/internal/core/schema"
)

// Form fields besides the dimension names.
const (
	fieldFilter = "filter"
	fieldChart  = "chart"
	fieldX      = "x"
	fieldY      = "y"
	fieldSQL    = "sql"
	fieldFile   = "filename"
)

// selectionFrom reads one value per schema dimension. A filter expression is
// applied first so explicit fields win over it.
func selectionFrom(values url.Values, s *schema.Schema) (domain.Selection, error) {
	sel := domain.Selection{}
	if expr := values.Get(fieldFilter); expr != "" {
		parsed, err := filterexpr.Parse(expr)
		if err != nil {
			return nil, err
		}
		sel = parsed
	}

	for _, d := range s.Dimensions {
		if v := values.Get(d.Name); v != "" {
			sel.Set(d.Name, v)
		}
	}
	return sel, nil
}

// chartFrom reads the chart fields. A missing kind means a bar chart; "none"
// disables the chart.
func chartFrom(values url.Values) (*render.ChartRequest, error) {
	kind := strings.TrimSpace(values.Get(fieldChart))
	if strings.EqualFold(kind, "none") {
		return nil, nil
	}
	if kind == "" {
		kind = string(render.Bar)
	}

	k, err := render.ParseChartKind(kind)
	if err != nil {
		return nil, err
	}
	return &render.ChartRequest{
		Kind: k,
		X:    strings.TrimSpace(values.Get(fieldX)),
		Y:    strings.TrimSpace(values.Get(fieldY)),
	}, nil
}

// encodeState rebuilds the query string for a selection and chart, used by
// image and download links.
func encodeState(sel domain.Selection, s *schema.Schema, req *render.ChartRequest) string {
	values := url.Values{}
	for _, d := range s.Dimensions {
		if v := sel.Value(d.Name); !domain.IsAll(v) {
			values.Set(d.Name, v)
		}
	}
	if req != nil {
		values.Set(fieldChart, string(req.Kind))
		if req.X != "" {
			values.Set(fieldX, req.X)
		}
		if req.Y != "" {
			values.Set(fieldY, req.Y)
		}
	}
	return values.Encode()
}

// exportName validates a user supplied export file name.
func exportName(name, fallback string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback, nil
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid export file name %q", name)
	}
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	return name, nil
}
