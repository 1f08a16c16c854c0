package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/cdi-explorer/cdi/internal/app"
	"github.com/cdi-explorer/cdi/internal/core/sample"
	"github.com/cdi-explorer/cdi/internal/version"
)

func newDBCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage your database",
		Long:  "Commands to check the database connection and load sample data.",
	}

	cmd.AddCommand(newDBPingCommand(c))
	cmd.AddCommand(newDBSeedCommand(c))
	return cmd
}

func newDBPingCommand(c *cli) *cobra.Command {
	var minVersion string

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check the database connection",
		Long: `Connect to the configured database and report the server version.
With --min-version the command fails when the server is older.`,
		Example: `  cdi db ping
  cdi db ping --min-version 12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			return c.withContainer(ctx, func(container *app.Container) error {
				db := container.Database()

				start := time.Now()
				if err := db.Ping(ctx); err != nil {
					return fmt.Errorf("failed to ping database: %w", err)
				}
				latency := time.Since(start)

				serverVersion, err := db.ServerVersion(ctx)
				if err != nil {
					return fmt.Errorf("failed to read server version: %w", err)
				}

				c.printer.KeyValues([][2]string{
					{"provider", c.cfg.Database.Provider},
					{"url", redact(c.cfg.Database.ConnectionURL())},
					{"server version", serverVersion},
					{"latency", latency.Round(time.Microsecond).String()},
				})

				if minVersion != "" {
					ok, err := version.CheckMinimum(serverVersion, minVersion)
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("server version %s is older than the required %s", serverVersion, minVersion)
					}
				}
				c.printer.Success("Database is reachable")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&minVersion, "min-version", "", "Fail if the server version is older than this")
	return cmd
}

func newDBSeedCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a small sample CDI dataset",
		Long: `Create the Year, Location, Topic, Question, DataSource and DataValue tables
and fill them with a handful of indicator rows. The tables must not exist yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withContainer(cmd.Context(), func(container *app.Container) error {
				if err := sample.Seed(cmd.Context(), container.Database()); err != nil {
					return err
				}
				c.printer.Success("Seeded %d indicator rows", sample.Rows)
				return nil
			})
		},
	}
}

// redact hides the password of URL-style connection strings.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.User == nil {
		return raw
	}
	return u.Redacted()
}
