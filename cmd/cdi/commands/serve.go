package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cdi-explorer/cdi/internal/app"
	"github.com/cdi-explorer/cdi/internal/config"
	"github.com/cdi-explorer/cdi/internal/core/schema"
	"github.com/cdi-explorer/cdi/internal/server"
	"github.com/cdi-explorer/cdi/internal/watch"
)

func newServeCommand(c *cli) *cobra.Command {
	var addr string
	var watchSchema bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard",
		Long: `Start the web dashboard: a filter sidebar, the filtered table, a bar, line
or map chart, CSV export and a custom SQL box. Prometheus metrics are served
at /metrics unless telemetry is disabled.`,
		Example: `  cdi serve
  cdi serve --addr :8080 --schema schema.yaml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.cfg.Server.Addr = addr
			}
			return c.withContainer(cmd.Context(), func(container *app.Container) error {
				return runServe(cmd.Context(), c, container, watchSchema)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 127.0.0.1:8501)")
	cmd.Flags().BoolVar(&watchSchema, "watch", false, "Reload the schema file when it changes")
	return cmd
}

func runServe(ctx context.Context, c *cli, container *app.Container, watchSchema bool) error {
	cfg := c.cfg

	srv, err := server.New(container.Explorer(), server.Config{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		ExportFilename: cfg.Export.Filename,
		Storage:        container.Storage(),
		Telemetry:      container.Telemetry(),
	})
	if err != nil {
		return err
	}

	if watchSchema {
		if cfg.Schema.Path == "" {
			return fmt.Errorf("--watch needs a schema file (set schema.path or --schema)")
		}
		reload := watch.SchemaReloader(config.AppFs, cfg.Schema.Path, container.Schemas(), func(s *schema.Schema) {
			c.printer.Info("Reloaded schema %s (%d dimensions)", cfg.Schema.Path, len(s.Dimensions))
		})
		w, err := watch.NewWatcher(cfg.Schema.Path, watch.DefaultDebounce, reload)
		if err != nil {
			return err
		}
		w.Start()
		defer w.Stop()
	}

	if err := srv.Start(); err != nil {
		return err
	}

	c.printer.Header("CDI Explorer", "Serving the dashboard at "+srv.URL())
	c.printer.Info("Press Ctrl+C to stop")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
