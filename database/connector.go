package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// Conn is one open connection. Close releases it.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Close() error
}

// Connector opens a fresh connection for a single operation.
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
}

// ConnectorFunc adapts a function to a Connector.
type ConnectorFunc func(ctx context.Context) (Conn, error)

// Connect calls f(ctx).
func (f ConnectorFunc) Connect(ctx context.Context) (Conn, error) {
	return f(ctx)
}

// SQLConnector opens connections through database/sql. Each Connect opens a
// single-connection pool and hands out its only connection; closing the
// Conn closes the pool too, so nothing stays open between operations.
type SQLConnector struct {
	DriverName     string
	DataSourceName string
}

// NewSQLConnector creates a connector for provider and connection string.
func NewSQLConnector(provider Provider, connString string) *SQLConnector {
	return &SQLConnector{
		DriverName:     provider.DriverName(),
		DataSourceName: provider.DataSourceName(connString),
	}
}

// Connect establishes the connection.
func (c *SQLConnector) Connect(ctx context.Context) (Conn, error) {
	db, err := sql.Open(c.DriverName, c.DataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return &sqlConn{Conn: conn, db: db}, nil
}

type sqlConn struct {
	*sql.Conn
	db *sql.DB
}

func (c *sqlConn) Close() error {
	return errors.Join(c.Conn.Close(), c.db.Close())
}

var _ Connector = (*SQLConnector)(nil)
