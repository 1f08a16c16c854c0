// Package commands implements the cdi CLI commands.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cdi-explorer/cdi/internal/app"
	"github.com/cdi-explorer/cdi/internal/config"
	"github.com/cdi-explorer/cdi/internal/debug"
	"github.com/cdi-explorer/cdi/internal/ui"
	"github.com/cdi-explorer/cdi/internal/version"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile  string
	verbose     bool
	logFormat   string
	schemaPath  string
	provider    string
	databaseURL string
}

// cli carries state from the root command to its subcommands.
type cli struct {
	opts    globalOptions
	cfg     *config.Config
	printer *ui.Printer
}

// NewRootCommand creates the cdi command tree.
func NewRootCommand() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:   "cdi",
		Short: "Explore the U.S. Chronic Disease Indicators dataset",
		Long: `cdi filters the Chronic Disease Indicators database by year, location,
topic and data source, and shows the result as a table and a chart.

Run "cdi serve" for the web dashboard or "cdi query" for the terminal.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.opts.configFile, "config", "", "Path to the config file (default: .cdi.yaml)")
	flags.BoolVarP(&c.opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&c.opts.logFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&c.opts.schemaPath, "schema", "", "Path to a schema YAML file")
	flags.StringVar(&c.opts.provider, "provider", "", "Database provider: postgres, mysql, sqlite or duckdb")
	flags.StringVar(&c.opts.databaseURL, "database-url", "", "Database connection URL")

	cmd.AddCommand(newServeCommand(c))
	cmd.AddCommand(newQueryCommand(c))
	cmd.AddCommand(newOptionsCommand(c))
	cmd.AddCommand(newSQLCommand(c))
	cmd.AddCommand(newExploreCommand(c))
	cmd.AddCommand(newDBCommand(c))
	cmd.AddCommand(newInitCommand(c))
	cmd.AddCommand(newVersionCommand(c))

	return cmd
}

// setup loads configuration, applies flag overrides and configures logging.
func (c *cli) setup(cmd *cobra.Command) error {
	c.printer = ui.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.LoadConfig(config.Options{ConfigFile: c.opts.configFile})
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("schema") {
		cfg.Schema.Path = c.opts.schemaPath
	}
	if flags.Changed("provider") {
		cfg.Database.Provider = c.opts.provider
	}
	if flags.Changed("database-url") {
		cfg.Database.URL = c.opts.databaseURL
	}
	if flags.Changed("verbose") {
		cfg.Log.Verbose = c.opts.verbose
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = c.opts.logFormat
	}
	c.cfg = cfg

	debug.Init(debug.Options{
		Verbose: cfg.Log.Verbose,
		Format:  cfg.Log.Format,
		Output:  cmd.ErrOrStderr(),
	})
	if cfg.File != "" {
		debug.Debug("Loaded config", "file", cfg.File)
	}
	return nil
}

// connect builds the container and opens the database. The caller must
// Close the container.
func (c *cli) connect(ctx context.Context) (*app.Container, error) {
	container, err := app.NewContainer(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	if err := container.Connect(ctx); err != nil {
		_ = container.Close(ctx)
		return nil, err
	}
	return container, nil
}

// withContainer runs fn against a connected container and closes it afterwards.
func (c *cli) withContainer(ctx context.Context, fn func(*app.Container) error) error {
	container, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(ctx); err != nil {
			debug.Warn("Failed to close container", "error", err)
		}
	}()
	return fn(container)
}
