// Package app wires configuration into adapters and services.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cdi-explorer/cdi/internal/adapters/database"
	"github.com/cdi-explorer/cdi/internal/adapters/database/duckdb"
	"github.com/cdi-explorer/cdi/internal/adapters/database/mysql"
	"github.com/cdi-explorer/cdi/internal/adapters/database/postgres"
	"github.com/cdi-explorer/cdi/internal/adapters/database/sqlite"
	"github.com/cdi-explorer/cdi/internal/adapters/storage"
	"github.com/cdi-explorer/cdi/internal/adapters/telemetry"
	"github.com/cdi-explorer/cdi/internal/config"
	"github.com/cdi-explorer/cdi/internal/core/schema"
	"github.com/cdi-explorer/cdi/internal/service"
)

// Container holds all application dependencies.
type Container struct {
	config *config.Config

	// Adapters
	db        database.Adapter
	storage   storage.Storage
	telemetry telemetry.Telemetry

	schemas  *schema.Holder
	explorer *service.Explorer
}

// NewContainer builds every dependency. The database is not connected until
// Connect is called.
func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{config: cfg}

	var err error
	c.db, err = NewDatabaseAdapter(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create database adapter: %w", err)
	}

	s, err := schema.Load(config.AppFs, cfg.Schema.Path)
	if err != nil {
		return nil, err
	}
	c.schemas = schema.NewHolder(s)

	c.telemetry, err = telemetry.NewTelemetry(&telemetry.Config{Type: cfg.Telemetry.Type})
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry: %w", err)
	}

	c.storage, err = storage.NewStorage(&storage.Config{Type: cfg.Export.Storage, BasePath: cfg.Export.Dir})
	if err != nil {
		return nil, fmt.Errorf("failed to create export storage: %w", err)
	}

	c.explorer = service.NewExplorer(c.schemas, c.db, c.telemetry)
	return c, nil
}

// Connect opens the database.
func (c *Container) Connect(ctx context.Context) error {
	if err := c.db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", c.db.GetDialect(), err)
	}
	return nil
}

// Config returns the loaded configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Database returns the database adapter.
func (c *Container) Database() database.Adapter {
	return c.db
}

// Schemas returns the schema holder.
func (c *Container) Schemas() *schema.Holder {
	return c.schemas
}

// Storage returns the export storage.
func (c *Container) Storage() storage.Storage {
	return c.storage
}

// Telemetry returns the telemetry adapter.
func (c *Container) Telemetry() telemetry.Telemetry {
	return c.telemetry
}

// Explorer returns the explorer service.
func (c *Container) Explorer() *service.Explorer {
	return c.explorer
}

// Close cleans up resources.
func (c *Container) Close(ctx context.Context) error {
	return errors.Join(
		c.telemetry.Close(ctx),
		c.db.Disconnect(ctx),
	)
}

// NewDatabaseAdapter creates the adapter for the configured provider.
func NewDatabaseAdapter(cfg config.DatabaseConfig) (database.Adapter, error) {
	dbConfig := database.Config{
		Provider:       cfg.Provider,
		URL:            cfg.ConnectionURL(),
		MaxConnections: cfg.MaxConnections,
		MaxIdleTime:    cfg.MaxIdleTime,
		ConnectTimeout: cfg.ConnectTimeout,
	}

	switch strings.ToLower(cfg.Provider) {
	case "postgresql", "postgres":
		return postgres.NewPostgresAdapter(dbConfig), nil
	case "mysql":
		return mysql.NewMySQLAdapter(dbConfig), nil
	case "sqlite", "sqlite3":
		return sqlite.NewSQLiteAdapter(dbConfig), nil
	case "duckdb":
		return duckdb.NewDuckDBAdapter(dbConfig), nil
	default:
		return nil, fmt.Errorf("unsupported database provider: %s", cfg.Provider)
	}
}
