package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/cdi-explorer/cdi/internal/app"
	"github.com/cdi-explorer/cdi/internal/config"
)

func newSQLCommand(c *cli) *cobra.Command {
	var file string
	var export string

	cmd := &cobra.Command{
		Use:   "sql [query]",
		Short: "Run a custom SQL query",
		Long: `Run free-text SQL against the database and print the result. Errors are
reported as a warning with an empty result.`,
		Example: `  cdi sql "SELECT Topic, COUNT(*) FROM Topic GROUP BY Topic"
  cdi sql --file report.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if file != "" {
				if query != "" {
					return fmt.Errorf("pass either a query or --file, not both")
				}
				data, err := afero.ReadFile(config.AppFs, file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				query = string(data)
			}

			return c.withContainer(cmd.Context(), func(container *app.Container) error {
				explorer := container.Explorer()
				outcome := explorer.Custom(cmd.Context(), query)
				c.printer.Warnings(outcome.Warnings)
				if outcome.Failed() {
					return nil
				}

				view := explorer.Renderer().Render(outcome.Result, nil)
				c.printer.Warnings(view.Warnings)
				if err := c.printer.Table(view.Table); err != nil {
					return err
				}

				if export != "" {
					location, err := exportCSV(cmd, container, outcome, export)
					if err != nil {
						return err
					}
					c.printer.Success("Data exported to %s", location)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the query from a file")
	cmd.Flags().StringVar(&export, "export", "", "Export the result to a CSV file")
	return cmd
}
