package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cdi-explorer/cdi/internal/core/query/domain"
	"github.com/cdi-explorer/cdi/internal/core/result"
)

// Driver describes how to open one engine through database/sql.
type Driver struct {
	// Name is the registered database/sql driver name.
	Name string

	// Dialect selects placeholder syntax in the query builder.
	Dialect domain.SQLDialect

	// VersionQuery returns a single version string.
	VersionQuery string

	// DSN turns the configured URL into a driver data source name.
	DSN func(Config) (string, error)

	// Setup tunes the pool after opening. Nil applies the config limits.
	Setup func(ctx context.Context, db *sql.DB, config Config) error
}

// SQLAdapter implements Adapter on top of database/sql.
type SQLAdapter struct {
	driver Driver
	config Config
	db     *sql.DB
}

// NewSQLAdapter creates an adapter for driver. Nothing is opened until Connect.
func NewSQLAdapter(driver Driver, config Config) *SQLAdapter {
	return &SQLAdapter{driver: driver, config: config}
}

// Connect establishes a connection to the database.
func (a *SQLAdapter) Connect(ctx context.Context) error {
	dsn := a.config.URL
	if a.driver.DSN != nil {
		var err error
		if dsn, err = a.driver.DSN(a.config); err != nil {
			return fmt.Errorf("invalid %s connection string: %w", a.driver.Dialect, err)
		}
	}

	db, err := sql.Open(a.driver.Name, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if a.driver.Setup != nil {
		err = a.driver.Setup(ctx, db, a.config)
	} else {
		PoolLimits(db, a.config)
	}
	if err != nil {
		db.Close()
		return err
	}

	if a.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(a.config.ConnectTimeout)*time.Second)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = db
	return nil
}

// Disconnect closes the database connection.
func (a *SQLAdapter) Disconnect(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// Execute executes a statement without returning rows.
func (a *SQLAdapter) Execute(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if a.db == nil {
		return nil, domain.ErrNotConnected
	}
	return a.db.ExecContext(ctx, query, args...)
}

// Query executes a query and scans the full result.
func (a *SQLAdapter) Query(ctx context.Context, query string, args ...interface{}) (*result.Set, error) {
	if a.db == nil {
		return nil, domain.ErrNotConnected
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return result.Scan(rows)
}

// Ping checks if the database connection is alive.
func (a *SQLAdapter) Ping(ctx context.Context) error {
	if a.db == nil {
		return domain.ErrNotConnected
	}
	return a.db.PingContext(ctx)
}

// ServerVersion runs the driver's version query.
func (a *SQLAdapter) ServerVersion(ctx context.Context) (string, error) {
	if a.db == nil {
		return "", domain.ErrNotConnected
	}

	var v string
	if err := a.db.QueryRowContext(ctx, a.driver.VersionQuery).Scan(&v); err != nil {
		return "", fmt.Errorf("failed to read server version: %w", err)
	}
	return v, nil
}

// GetDialect returns the SQL dialect.
func (a *SQLAdapter) GetDialect() domain.SQLDialect {
	return a.driver.Dialect
}

// PoolLimits applies MaxConnections and MaxIdleTime from config.
func PoolLimits(db *sql.DB, config Config) {
	if config.MaxConnections > 0 {
		db.SetMaxOpenConns(config.MaxConnections)
		db.SetMaxIdleConns((config.MaxConnections + 1) / 2)
	}
	if config.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(time.Duration(config.MaxIdleTime) * time.Second)
	}
}

// SingleConnection pins the pool to one connection that never expires.
// In-memory engines lose their data when the last connection closes.
func SingleConnection(db *sql.DB) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
}

// Ensure SQLAdapter implements Adapter interface.
var _ Adapter = (*SQLAdapter)(nil)
