package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/cdi-explorer/cdi/internal/config"
	"github.com/cdi-explorer/cdi/internal/core/schema"
)

const schemaFile = "schema.yaml"

const nextSteps = `
## Next steps

1. Set ` + "`DATABASE_URL`" + ` in your ` + "`.env`" + ` file, or edit ` + "`.cdi.yaml`" + `.
2. Run ` + "`cdi db ping`" + ` to check the connection.
3. Run ` + "`cdi serve`" + ` and open the dashboard.
`

func newInitCommand(c *cli) *cobra.Command {
	var dir string
	var hosted bool
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter config and schema file",
		Long: `Write .cdi.yaml and schema.yaml to the target directory. The schema describes
the fact table, the dimension tables joined to it and the filterable columns.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := config.AppFs
			configPath := filepath.Join(dir, config.FileName+".yaml")
			schemaPath := filepath.Join(dir, schemaFile)

			if !force {
				for _, p := range []string{configPath, schemaPath} {
					if exists, _ := afero.Exists(fs, p); exists {
						return fmt.Errorf("%s already exists (use --force to overwrite)", p)
					}
				}
			}

			s := schema.Default()
			if hosted {
				s = schema.Hosted()
			}
			data, err := schema.Marshal(s)
			if err != nil {
				return err
			}
			if err := fs.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
			if err := afero.WriteFile(fs, schemaPath, data, 0o644); err != nil {
				return fmt.Errorf("failed to write schema file: %w", err)
			}

			cfg := config.Default()
			cfg.Database.Provider = c.cfg.Database.Provider
			cfg.Database.URL = c.cfg.Database.URL
			cfg.Schema.Path = schemaFile
			if err := config.SaveConfig(cfg, configPath); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			c.printer.Success("Created %s", configPath)
			c.printer.Success("Created %s (%s layout)", schemaPath, s.Name)
			if err := c.printer.Markdown(nextSteps); err != nil {
				c.printer.Info("%s", nextSteps)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Target directory")
	cmd.Flags().BoolVar(&hosted, "hosted", false, "Use the hosted layout with the data source dimension and coordinates")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}
