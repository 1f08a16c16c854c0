package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cdi-explorer/cdi/internal/version"
)

func newVersionCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display version information for the cdi CLI",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().FullString())
		},
	}
}
