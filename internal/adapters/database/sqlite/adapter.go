// Package sqlite implements the SQLite database adapter.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/cdi-explorer/cdi/internal/adapters/database"
	"github.com/cdi-explorer/cdi/internal/core/query/domain"
)

// Driver opens SQLite files through mattn/go-sqlite3.
var Driver = database.Driver{
	Name:         "sqlite3",
	Dialect:      domain.SQLite,
	VersionQuery: "SELECT sqlite_version()",
	DSN:          DSN,
	Setup:        setup,
}

// NewSQLiteAdapter creates a new SQLite adapter.
func NewSQLiteAdapter(config database.Config) *database.SQLAdapter {
	return database.NewSQLAdapter(Driver, config)
}

// DSN strips sqlite:// and sqlite: prefixes. An empty URL opens an
// in-memory database.
func DSN(config database.Config) (string, error) {
	dsn := strings.TrimSpace(config.URL)
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	dsn = strings.TrimPrefix(dsn, "sqlite:")
	if dsn == "" {
		dsn = ":memory:"
	}
	return dsn, nil
}

func setup(ctx context.Context, db *sql.DB, _ database.Config) error {
	database.SingleConnection(db)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return nil
}
