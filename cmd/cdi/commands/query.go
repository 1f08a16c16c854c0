package commands

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/cdi-explorer/cdi/internal/app"
	"github.com/cdi-explorer/cdi/internal/config"
	"github.com/cdi-explorer/cdi/internal/core/query/domain"
	"github.com/cdi-explorer/cdi/internal/core/query/filterexpr"
	"github.com/cdi-explorer/cdi/internal/core/render"
	"github.com/cdi-explorer/cdi/internal/core/result"
	"github.com/cdi-explorer/cdi/internal/service"
)

// dimensionFlags are the per-dimension filter flags.
var dimensionFlags = []string{"year", "location", "topic", "datasource"}

type queryOptions struct {
	values  map[string]*string
	filter  string
	chart   string
	x, y    string
	out     string
	export  string
	showSQL bool
}

func newQueryCommand(c *cli) *cobra.Command {
	opts := &queryOptions{values: map[string]*string{}}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Filter the dataset and print the result",
		Long: `Run the filtered query for the given selection and print the result table.
Dimensions left unset (or set to All) are not restricted.`,
		Example: `  cdi query --year 2020 --topic Diabetes
  cdi query --filter "location='New York' and topic=Asthma" --chart line --x Year
  cdi query --datasource BRFSS --chart map --out map.png
  cdi query --year 2019 --export diabetes.csv --show-sql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withContainer(cmd.Context(), func(container *app.Container) error {
				return runQuery(cmd, c, container, opts)
			})
		},
	}

	for _, name := range dimensionFlags {
		opts.values[name] = cmd.Flags().String(name, domain.All, fmt.Sprintf("Filter by %s", name))
	}
	cmd.Flags().StringVar(&opts.filter, "filter", "", `Filter expression, e.g. 'year=2020 and topic="Diabetes"'`)
	cmd.Flags().StringVar(&opts.chart, "chart", "", "Chart type: bar, line or map")
	cmd.Flags().StringVar(&opts.x, "x", "", "X-axis column")
	cmd.Flags().StringVar(&opts.y, "y", "", "Y-axis column")
	cmd.Flags().StringVar(&opts.out, "out", "", "Write the chart image to a .png or .svg file")
	cmd.Flags().StringVar(&opts.export, "export", "", "Export the result to a CSV file")
	cmd.Flags().BoolVar(&opts.showSQL, "show-sql", false, "Print the generated SQL")

	return cmd
}

// selection merges the filter expression with explicitly set flags.
func (o *queryOptions) selection(cmd *cobra.Command) (domain.Selection, error) {
	sel, err := filterexpr.Parse(o.filter)
	if err != nil {
		return nil, err
	}
	for _, name := range dimensionFlags {
		if cmd.Flags().Changed(name) {
			sel.Set(name, *o.values[name])
		}
	}
	return sel, nil
}

// chartRequest returns nil when no chart was asked for.
func (o *queryOptions) chartRequest() (*render.ChartRequest, error) {
	if o.chart == "" && o.out == "" && o.x == "" && o.y == "" {
		return nil, nil
	}
	kind := render.Bar
	if o.chart != "" {
		var err error
		if kind, err = render.ParseChartKind(o.chart); err != nil {
			return nil, err
		}
	}
	return &render.ChartRequest{Kind: kind, X: o.x, Y: o.y}, nil
}

func runQuery(cmd *cobra.Command, c *cli, container *app.Container, opts *queryOptions) error {
	sel, err := opts.selection(cmd)
	if err != nil {
		return err
	}
	req, err := opts.chartRequest()
	if err != nil {
		return err
	}

	explorer := container.Explorer()
	outcome := explorer.Filter(cmd.Context(), sel)
	p := c.printer

	if opts.showSQL && outcome.Query != nil {
		p.SQL(outcome.Query.SQL.Query, outcome.Query.SQL.Args)
	}

	view := explorer.Renderer().Render(outcome.Result, req)
	warnings := append(append([]string(nil), outcome.Warnings...), view.Warnings...)
	p.Warnings(dedupe(warnings))

	if !outcome.Result.IsEmpty() {
		if err := p.Table(view.Table); err != nil {
			return err
		}
	}
	if err := p.Chart(view.Chart); err != nil {
		return err
	}

	if opts.out != "" && view.Chart != nil {
		if err := writeChart(view.Chart, opts.out); err != nil {
			return err
		}
		p.Success("Chart written to %s", opts.out)
	}

	if opts.export != "" && !outcome.Failed() {
		location, err := exportCSV(cmd, container, outcome, opts.export)
		if err != nil {
			return err
		}
		p.Success("Data exported to %s", location)
	}
	return nil
}

func writeChart(chart *render.Chart, path string) error {
	format, err := render.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := render.WriteImage(&buf, chart, format, 0, 0); err != nil {
		return fmt.Errorf("failed to draw chart: %w", err)
	}
	return afero.WriteFile(config.AppFs, path, buf.Bytes(), 0o644)
}

func exportCSV(cmd *cobra.Command, container *app.Container, outcome *service.Outcome, name string) (string, error) {
	var buf bytes.Buffer
	if err := result.WriteCSV(&buf, outcome.Result); err != nil {
		return "", err
	}
	store := container.Storage()
	if err := store.Write(cmd.Context(), name, buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to export data: %w", err)
	}
	return store.Location(name), nil
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, s := range list {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
