// Package ui renders CLI output: styled messages, result tables and
// terminal charts.
package ui

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/cdi-explorer/cdi/internal/core/render"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// MaxTableRows caps how many rows Table prints.
const MaxTableRows = 200

// Printer writes styled output to a pair of writers.
type Printer struct {
	out io.Writer
	err io.Writer
}

// NewPrinter creates a printer. Errors go to errOut.
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{out: out, err: errOut}
}

// Out returns the standard output writer.
func (p *Printer) Out() io.Writer {
	return p.out
}

func terminalWidth() int {
	if w := pterm.GetTerminalWidth(); w > 0 {
		return w
	}
	return 80
}

// Header prints a boxed title.
func (p *Printer) Header(title, subtitle string) {
	header := lipgloss.NewStyle().
		Width(terminalWidth()-2).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(0, 2).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Center,
				TitleStyle.Render(title),
				SecondaryStyle.Render(subtitle),
			),
		)

	fmt.Fprintln(p.out, header)
}

// Success prints a success message
func (p *Printer) Success(format string, args ...interface{}) {
	fmt.Fprintln(p.out, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Error prints an error message
func (p *Printer) Error(format string, args ...interface{}) {
	fmt.Fprintln(p.err, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...interface{}) {
	fmt.Fprintln(p.out, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Info prints an info message
func (p *Printer) Info(format string, args ...interface{}) {
	fmt.Fprintln(p.out, InfoStyle.Render("ℹ "+fmt.Sprintf(format, args...)))
}

// Warnings prints each warning on its own line.
func (p *Printer) Warnings(warnings []string) {
	for _, w := range warnings {
		p.Warning("%s", w)
	}
}

// Section prints a section header
func (p *Printer) Section(title string) {
	section := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(SecondaryColor).
		Render(TitleStyle.Render(title))

	fmt.Fprintln(p.out, section)
}

// Table prints a rendered result table.
func (p *Printer) Table(t render.Table) error {
	if len(t.Columns) == 0 {
		return nil
	}

	rows := t.Rows
	truncated := 0
	if len(rows) > MaxTableRows {
		truncated = len(rows) - MaxTableRows
		rows = rows[:MaxTableRows]
	}

	data := pterm.TableData{t.Columns}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, out)

	if truncated > 0 {
		fmt.Fprintln(p.out, SecondaryStyle.Render(fmt.Sprintf("… %d more rows", truncated)))
	}
	fmt.Fprintln(p.out, SecondaryStyle.Render(fmt.Sprintf("%d rows", len(t.Rows))))
	return nil
}

// Chart prints a terminal rendition: bars for bar and line charts, a
// coordinate table for maps.
func (p *Printer) Chart(c *render.Chart) error {
	if c == nil {
		return nil
	}
	p.Section(fmt.Sprintf("%s: %s by %s", c.Title, c.YLabel, c.XLabel))

	if c.Kind == render.Map {
		data := pterm.TableData{{c.YLabel, c.XLabel}}
		for _, pt := range c.Points {
			data = append(data, []string{formatFloat(pt.Y), formatFloat(pt.X)})
		}
		out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(p.out, out)
		return nil
	}

	maxAbs := 0.0
	for _, pt := range c.Points {
		maxAbs = math.Max(maxAbs, math.Abs(pt.Y))
	}

	// Integer bars would flatten values below one; print them instead.
	if maxAbs < 1 {
		data := pterm.TableData{{c.XLabel, c.YLabel}}
		for _, pt := range c.Points {
			data = append(data, []string{pt.Label, formatFloat(pt.Y)})
		}
		out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(p.out, out)
		return nil
	}

	bars := make(pterm.Bars, len(c.Points))
	for i, pt := range c.Points {
		bars[i] = pterm.Bar{Label: pt.Label, Value: int(math.Round(pt.Y))}
	}
	out, err := pterm.DefaultBarChart.WithBars(bars).WithHorizontal().WithShowValue().Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, out)
	return nil
}

// SQL prints a query with its bound arguments.
func (p *Printer) SQL(query string, args []interface{}) {
	block := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(SecondaryColor).
		Padding(0, 1).
		Render(query)
	fmt.Fprintln(p.out, block)

	if len(args) > 0 {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = fmt.Sprintf("%d=%q", i+1, fmt.Sprint(a))
		}
		color.New(color.FgCyan).Fprintf(p.out, "args: %s\n", strings.Join(parts, " "))
	}
}

// KeyValues prints aligned label/value pairs.
func (p *Printer) KeyValues(pairs [][2]string) {
	width := 0
	for _, kv := range pairs {
		if len(kv[0]) > width {
			width = len(kv[0])
		}
	}
	label := color.New(color.FgCyan, color.Bold)
	for _, kv := range pairs {
		label.Fprintf(p.out, "%-*s", width+1, kv[0]+":")
		fmt.Fprintf(p.out, " %s\n", kv[1])
	}
}

// Markdown renders markdown content
func (p *Printer) Markdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return err
	}

	out, err := r.Render(content)
	if err != nil {
		return err
	}

	fmt.Fprint(p.out, out)
	return nil
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.4f", f)
}
