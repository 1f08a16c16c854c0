package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is an image encoding for charts.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// Default image size in pixels.
const (
	DefaultWidth  = 960
	DefaultHeight = 540
)

// ErrNoPoints is returned when a chart has nothing to draw.
var ErrNoPoints = errors.New("chart has no points")

// ParseFormat accepts "png" or "svg", ignoring case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case PNG, SVG:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// WriteImage draws c to w. Non-positive sizes use the defaults.
func WriteImage(w io.Writer, c *Chart, format Format, width, height int) error {
	if c == nil || len(c.Points) == 0 {
		return ErrNoPoints
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	provider := chart.PNG
	if format == SVG {
		provider = chart.SVG
	}

	var err error
	switch c.Kind {
	case Bar:
		err = barImage(c, width, height).Render(provider, w)
	case Line:
		err = lineImage(c, width, height).Render(provider, w)
	case Map:
		err = mapImage(c, width, height).Render(provider, w)
	default:
		return fmt.Errorf("unknown chart type %q", c.Kind)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", c.Kind.Title(), err)
	}
	return nil
}

// Bar layout limits in pixels.
const (
	barMargin  = 120
	minBarSlot = 3
)

func barImage(c *Chart, width, height int) chart.BarChart {
	bars := make([]chart.Value, len(c.Points))
	for i, p := range c.Points {
		bars[i] = chart.Value{Label: p.Label, Value: p.Y}
	}

	// Fit every bar inside the canvas; go-chart's default spacing is 100px.
	// Too many bars widen the canvas instead of spilling over its edge.
	slot := (width - barMargin) / len(bars)
	if slot < minBarSlot {
		slot = minBarSlot
		width = len(bars)*minBarSlot + barMargin
	}
	barWidth := slot * 2 / 3
	spacing := slot - barWidth
	if spacing < 1 {
		spacing = 1
	}

	return chart.BarChart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: spacing,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis:      chart.YAxis{Name: c.YLabel, Range: valueRange(c.Points, true)},
		Bars:       bars,
	}
}

func lineImage(c *Chart, width, height int) chart.Chart {
	xs := make([]float64, len(c.Points))
	ys := make([]float64, len(c.Points))
	ticks := make([]chart.Tick, len(c.Points))
	for i, p := range c.Points {
		xs[i], ys[i] = p.X, p.Y
		ticks[i] = chart.Tick{Value: p.X, Label: p.Label}
	}
	xs, ys = padSingle(xs, ys)

	return chart.Chart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20}},
		XAxis:      chart.XAxis{Name: c.XLabel, Ticks: ticks, Range: axisRange(xs)},
		YAxis:      chart.YAxis{Name: c.YLabel, Range: axisRange(ys)},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: c.YLabel, XValues: xs, YValues: ys},
		},
	}
}

func mapImage(c *Chart, width, height int) chart.Chart {
	lons := make([]float64, len(c.Points))
	lats := make([]float64, len(c.Points))
	for i, p := range c.Points {
		lons[i], lats[i] = p.X, p.Y
	}
	lons, lats = padSingle(lons, lats)

	return chart.Chart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20}},
		XAxis:      chart.XAxis{Name: c.XLabel, Range: axisRange(lons)},
		YAxis:      chart.YAxis{Name: c.YLabel, Range: axisRange(lats)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "locations",
				Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 4, DotColor: drawing.ColorBlue},
				XValues: lons,
				YValues: lats,
			},
		},
	}
}

// padSingle repeats a lone point; go-chart needs two values per series.
func padSingle(xs, ys []float64) ([]float64, []float64) {
	if len(xs) == 1 {
		return append(xs, xs[0]), append(ys, ys[0])
	}
	return xs, ys
}

// axisRange widens degenerate ranges, which go-chart refuses to draw.
func axisRange(values []float64) *chart.ContinuousRange {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func valueRange(points []Point, fromZero bool) *chart.ContinuousRange {
	ys := make([]float64, len(points))
	for i, p := range points {
		ys[i] = p.Y
	}
	if fromZero {
		ys = append(ys, 0)
	}
	return axisRange(ys)
}
