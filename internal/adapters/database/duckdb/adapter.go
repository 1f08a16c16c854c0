// Package duckdb implements the DuckDB database adapter, used for local
// analytical copies of the CDI tables.
package duckdb

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver

	"github.com/cdi-explorer/cdi/internal/adapters/database"
	"github.com/cdi-explorer/cdi/internal/core/query/domain"
)

// Driver opens DuckDB files through marcboeker/go-duckdb.
var Driver = database.Driver{
	Name:         "duckdb",
	Dialect:      domain.DuckDB,
	VersionQuery: "SELECT version()",
	DSN:          DSN,
	Setup:        setup,
}

// NewDuckDBAdapter creates a new DuckDB adapter.
func NewDuckDBAdapter(config database.Config) *database.SQLAdapter {
	return database.NewSQLAdapter(Driver, config)
}

// DSN strips the duckdb:// prefix. An empty path opens an in-memory database.
func DSN(config database.Config) (string, error) {
	dsn := strings.TrimSpace(config.URL)
	dsn = strings.TrimPrefix(dsn, "duckdb://")
	dsn = strings.TrimPrefix(dsn, "duckdb:")
	if dsn == ":memory:" {
		dsn = ""
	}
	return dsn, nil
}

func setup(_ context.Context, db *sql.DB, config database.Config) error {
	if dsn, _ := DSN(config); dsn == "" {
		database.SingleConnection(db)
		return nil
	}
	database.PoolLimits(db, config)
	return nil
}
