package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cdi-explorer/cdi/internal/app"
)

func newOptionsCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the filter values of every dimension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withContainer(cmd.Context(), func(container *app.Container) error {
				opts := container.Explorer().Options(cmd.Context())

				pairs := make([][2]string, 0, len(opts.Sets))
				for _, set := range opts.Sets {
					pairs = append(pairs, [2]string{set.Dimension.DisplayLabel(), strings.Join(set.Values, ", ")})
				}
				c.printer.KeyValues(pairs)
				c.printer.Warnings(opts.Warnings)
				return nil
			})
		},
	}
}
