package commands

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/cdi-explorer/cdi/internal/app"
	"github.com/cdi-explorer/cdi/internal/core/query/domain"
	"github.com/cdi-explorer/cdi/internal/core/render"
	"github.com/cdi-explorer/cdi/internal/service"
	"github.com/cdi-explorer/cdi/internal/ui"
)

// Explore menu entries.
const (
	actionFilter = "Filter data"
	actionSQL    = "Run a custom SQL query"
	actionQuit   = "Quit"

	chartNone = "No chart"
)

// prompter asks the interactive questions of the explore loop.
type prompter interface {
	Select(message string, options []string, def string) (string, error)
	Text(message string) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Select(message string, options []string, def string) (string, error) {
	var answer string
	prompt := &survey.Select{Message: message, Options: options, Default: def, PageSize: 15}
	err := survey.AskOne(prompt, &answer)
	return answer, err
}

func (surveyPrompter) Text(message string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Multiline{Message: message}, &answer)
	return answer, err
}

func newExploreCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Explore the dataset interactively",
		Long: `Pick a value for every filter from a menu, pick a chart type and see the
result. The last choices are kept as defaults for the next round.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withContainer(cmd.Context(), func(container *app.Container) error {
				err := explore(cmd.Context(), c.printer, container.Explorer(), surveyPrompter{})
				if errors.Is(err, terminal.InterruptErr) {
					return nil
				}
				return err
			})
		},
	}
}

func explore(ctx context.Context, p *ui.Printer, explorer *service.Explorer, ask prompter) error {
	opts := explorer.Options(ctx)
	p.Warnings(opts.Warnings)

	sel := domain.Selection{}
	chartChoice := render.Bar.Title()

	for {
		action, err := ask.Select("What next?", []string{actionFilter, actionSQL, actionQuit}, actionFilter)
		if err != nil {
			return err
		}

		switch action {
		case actionQuit:
			return nil

		case actionSQL:
			query, err := ask.Text("SQL query")
			if err != nil {
				return err
			}
			outcome := explorer.Custom(ctx, query)
			p.Warnings(outcome.Warnings)
			if !outcome.Failed() {
				view := explorer.Renderer().Render(outcome.Result, nil)
				p.Warnings(view.Warnings)
				if err := p.Table(view.Table); err != nil {
					return err
				}
			}

		default:
			for _, set := range opts.Sets {
				v, err := ask.Select("Select "+set.Dimension.DisplayLabel(), set.Values, sel.Value(set.Dimension.Name))
				if err != nil {
					return err
				}
				sel.Set(set.Dimension.Name, v)
			}

			chartChoice, err = ask.Select("Select Chart Type", chartMenu(), chartChoice)
			if err != nil {
				return err
			}

			var req *render.ChartRequest
			if chartChoice != chartNone {
				kind, err := render.ParseChartKind(chartChoice)
				if err != nil {
					return err
				}
				req = &render.ChartRequest{Kind: kind}
			}

			outcome := explorer.Filter(ctx, sel)
			view := explorer.Renderer().Render(outcome.Result, req)
			p.Warnings(dedupe(append(append([]string(nil), outcome.Warnings...), view.Warnings...)))
			if !outcome.Result.IsEmpty() {
				if err := p.Table(view.Table); err != nil {
					return err
				}
			}
			if err := p.Chart(view.Chart); err != nil {
				return err
			}
		}
	}
}

func chartMenu() []string {
	menu := make([]string, 0, len(render.ChartKinds)+1)
	for _, k := range render.ChartKinds {
		menu = append(menu, k.Title())
	}
	return append(menu, chartNone)
}
