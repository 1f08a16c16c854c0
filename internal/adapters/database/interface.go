// Package database defines database adapter interfaces.
package database

import (
	"context"
	"database/sql"

	"github.com/cdi-explorer/cdi/internal/core/query/domain"
	"github.com/cdi-explorer/cdi/internal/core/result"
)

// Adapter is a connection to one CDI database.
type Adapter interface {
	// Connect opens the pool and verifies it with a ping.
	Connect(ctx context.Context) error

	// Disconnect closes the pool.
	Disconnect(ctx context.Context) error

	// Execute runs a statement that returns no rows.
	Execute(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// Query runs a query and reads every row.
	Query(ctx context.Context, query string, args ...interface{}) (*result.Set, error)

	// Ping checks the connection.
	Ping(ctx context.Context) error

	// ServerVersion reports the engine version string.
	ServerVersion(ctx context.Context) (string, error)

	// GetDialect returns the SQL dialect.
	GetDialect() domain.SQLDialect
}

// Config holds database connection configuration.
type Config struct {
	Provider       string
	URL            string
	MaxConnections int
	MaxIdleTime    int // seconds
	ConnectTimeout int // seconds
}
