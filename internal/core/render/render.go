// Package render projects result sets onto tables and charts.
package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cdi-explorer/cdi/internal/core/result"
)

// Warnings shown to the user when a view degrades.
const (
	WarnNoData      = "No data available for visualization."
	WarnNoGeo       = "Latitude and Longitude data are not available."
	WarnNoGeoPoints = "No rows have both latitude and longitude."
)

// ChartKind selects a chart projection.
type ChartKind string

const (
	// Bar is a categorical bar aggregation.
	Bar ChartKind = "bar"
	// Line is a trend over the X column.
	Line ChartKind = "line"
	// Map is a geographic scatter over latitude/longitude.
	Map ChartKind = "map"
)

// ChartKinds lists every kind in menu order.
var ChartKinds = []ChartKind{Bar, Line, Map}

// ParseChartKind accepts "bar", "Bar Chart", "line", "Line Chart" or "map".
func ParseChartKind(s string) (ChartKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.TrimSuffix(normalized, " chart")
	switch ChartKind(normalized) {
	case Bar, Line, Map:
		return ChartKind(normalized), nil
	default:
		return "", fmt.Errorf("unknown chart type %q (want bar, line or map)", s)
	}
}

// Title returns the menu label of the kind.
func (k ChartKind) Title() string {
	switch k {
	case Bar:
		return "Bar Chart"
	case Line:
		return "Line Chart"
	case Map:
		return "Map"
	default:
		return string(k)
	}
}

// ChartRequest is the user's chart choice. Empty axes fall back to defaults.
type ChartRequest struct {
	Kind ChartKind
	X    string
	Y    string
}

// Point is one plotted value. For maps X is longitude and Y latitude.
type Point struct {
	Label string
	X     float64
	Y     float64
}

// Chart is a render-ready projection.
type Chart struct {
	Kind   ChartKind
	Title  string
	XLabel string
	YLabel string
	Points []Point
}

// Table is the verbatim, string-formatted result.
type Table struct {
	Columns []string
	Rows    [][]string
}

// View is everything one interaction displays.
type View struct {
	Table    Table
	Chart    *Chart
	Warnings []string
}

// Renderer builds views. Latitude and longitude name the map columns.
type Renderer struct {
	latitude  string
	longitude string
}

// NewRenderer creates a renderer using the given coordinate columns.
func NewRenderer(latitude, longitude string) *Renderer {
	return &Renderer{latitude: latitude, longitude: longitude}
}

// Render builds the table and, when req is not nil, the chart. An empty set
// always yields WarnNoData and no chart.
func (r *Renderer) Render(set *result.Set, req *ChartRequest) *View {
	if set == nil {
		set = result.Empty()
	}

	view := &View{
		Table: Table{Columns: set.Columns, Rows: set.Strings()},
	}

	if set.IsEmpty() {
		view.Warnings = append(view.Warnings, WarnNoData)
		return view
	}
	if req == nil {
		return view
	}

	chart, warnings := r.Chart(set, *req)
	view.Chart = chart
	view.Warnings = append(view.Warnings, warnings...)
	return view
}

// Chart projects set onto the requested chart. A nil chart comes with at
// least one warning.
func (r *Renderer) Chart(set *result.Set, req ChartRequest) (*Chart, []string) {
	if set.IsEmpty() {
		return nil, []string{WarnNoData}
	}

	switch req.Kind {
	case Map:
		return r.mapChart(set)
	case Bar, Line:
		return r.axisChart(set, req)
	default:
		return nil, []string{fmt.Sprintf("Unknown chart type %q.", req.Kind)}
	}
}

func (r *Renderer) axisChart(set *result.Set, req ChartRequest) (*Chart, []string) {
	x, y := req.X, req.Y
	if x == "" {
		x = set.Columns[0]
	}
	xi := set.ColumnIndex(x)
	if xi < 0 {
		return nil, []string{fmt.Sprintf("Column %q is not in the result.", x)}
	}

	if y == "" {
		y = firstNumericColumn(set, xi)
		if y == "" {
			return nil, []string{"No numeric column available for the Y axis."}
		}
	}
	yi := set.ColumnIndex(y)
	if yi < 0 {
		return nil, []string{fmt.Sprintf("Column %q is not in the result.", y)}
	}

	groups := groupByLabel(set, xi, yi)
	if len(groups) == 0 {
		return nil, []string{fmt.Sprintf("Column %q has no numeric values to plot.", set.Columns[yi])}
	}

	c := &Chart{
		Kind:   req.Kind,
		Title:  req.Kind.Title(),
		XLabel: set.Columns[xi],
		YLabel: set.Columns[yi],
	}

	if req.Kind == Line {
		sortGroups(groups)
	}

	c.Points = make([]Point, len(groups))
	for i, g := range groups {
		value := g.sum
		if req.Kind == Line {
			value = g.sum / float64(g.count)
		}
		c.Points[i] = Point{Label: g.label, X: float64(i), Y: value}
	}

	var warnings []string
	if skipped := set.Len() - countRows(groups); skipped > 0 {
		warnings = append(warnings, fmt.Sprintf("%d rows without a numeric %s were skipped.", skipped, set.Columns[yi]))
	}
	return c, warnings
}

func (r *Renderer) mapChart(set *result.Set) (*Chart, []string) {
	lati, loni := set.ColumnIndex(r.latitude), set.ColumnIndex(r.longitude)
	if lati < 0 || loni < 0 {
		return nil, []string{WarnNoGeo}
	}

	c := &Chart{
		Kind:   Map,
		Title:  Map.Title(),
		XLabel: set.Columns[loni],
		YLabel: set.Columns[lati],
	}
	for _, row := range set.Rows {
		lat, okLat := result.Float(row[lati])
		lon, okLon := result.Float(row[loni])
		if !okLat || !okLon {
			continue
		}
		c.Points = append(c.Points, Point{X: lon, Y: lat})
	}

	if len(c.Points) == 0 {
		return nil, []string{WarnNoGeoPoints}
	}
	return c, nil
}

type group struct {
	label string
	sum   float64
	count int
}

// groupByLabel aggregates numeric Y values per distinct X label in first-seen order.
func groupByLabel(set *result.Set, xi, yi int) []*group {
	var groups []*group
	index := make(map[string]*group)

	for _, row := range set.Rows {
		v, ok := result.Float(row[yi])
		if !ok {
			continue
		}
		label := result.FormatValue(row[xi])
		g, exists := index[label]
		if !exists {
			g = &group{label: label}
			index[label] = g
			groups = append(groups, g)
		}
		g.sum += v
		g.count++
	}
	return groups
}

// sortGroups orders labels numerically when all of them are numbers, otherwise lexically.
func sortGroups(groups []*group) {
	numeric := true
	values := make(map[string]float64, len(groups))
	for _, g := range groups {
		f, err := strconv.ParseFloat(g.label, 64)
		if err != nil {
			numeric = false
			break
		}
		values[g.label] = f
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if numeric {
			return values[groups[i].label] < values[groups[j].label]
		}
		return groups[i].label < groups[j].label
	})
}

func countRows(groups []*group) int {
	n := 0
	for _, g := range groups {
		n += g.count
	}
	return n
}

func firstNumericColumn(set *result.Set, skip int) string {
	for i, c := range set.Columns {
		if i == skip {
			continue
		}
		for _, row := range set.Rows {
			if _, ok := result.Float(row[i]); ok {
				return c
			}
		}
	}
	return ""
}
