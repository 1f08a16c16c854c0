// Package postgres implements the PostgreSQL database adapter.
package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/cdi-explorer/cdi/internal/adapters/database"
	"github.com/cdi-explorer/cdi/internal/core/query/domain"
)

// Driver opens PostgreSQL through lib/pq.
var Driver = database.Driver{
	Name:         "postgres",
	Dialect:      domain.PostgreSQL,
	VersionQuery: "SHOW server_version",
	DSN:          DSN,
}

// NewPostgresAdapter creates a new PostgreSQL adapter.
func NewPostgresAdapter(config database.Config) *database.SQLAdapter {
	return database.NewSQLAdapter(Driver, config)
}

// DSN converts postgres:// URLs into lib/pq key=value form and adds
// connect_timeout when the config sets one.
func DSN(config database.Config) (string, error) {
	dsn := strings.TrimSpace(config.URL)
	if dsn == "" {
		return "", fmt.Errorf("database URL is empty")
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		converted, err := pq.ParseURL(dsn)
		if err != nil {
			return "", err
		}
		dsn = converted
	}

	if config.ConnectTimeout > 0 && !strings.Contains(dsn, "connect_timeout=") {
		dsn = fmt.Sprintf("%s connect_timeout=%d", dsn, config.ConnectTimeout)
	}
	return dsn, nil
}
