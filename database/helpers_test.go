package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// countingConnector wraps a Connector and counts opened and closed connections.
type countingConnector struct {
	inner  Connector
	opens  atomic.Int32
	closes atomic.Int32
}

func (c *countingConnector) Connect(ctx context.Context) (Conn, error) {
	conn, err := c.inner.Connect(ctx)
	if err != nil {
		return nil, err
	}
	c.opens.Add(1)
	return &countingConn{Conn: conn, closes: &c.closes}, nil
}

func (c *countingConnector) balanced() bool {
	return c.opens.Load() == c.closes.Load()
}

type countingConn struct {
	Conn
	closes *atomic.Int32
}

func (c *countingConn) Close() error {
	c.closes.Add(1)
	return c.Conn.Close()
}

// sqliteFile creates a SQLite database file and runs the given statements in it.
func sqliteFile(t *testing.T, name string, statements ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return path
}

// newSQLiteHandle returns a handle on a fresh SQLite file together with
// the connector counting its connections.
func newSQLiteHandle(t *testing.T, statements ...string) (*Handle, *countingConnector) {
	t.Helper()

	path := sqliteFile(t, "fixture.db", statements...)
	counter := &countingConnector{inner: NewSQLConnector(SQLite, path)}
	h, err := New("fixture", path,
		WithConnector(counter),
		WithPolicy(Policy{Timeout: DefaultTimeout, Interval: DefaultPollInterval}))
	require.NoError(t, err)
	return h, counter
}

type order struct {
	ID       int64
	Customer string
	Total    float64
	Note     sql.Null[string]
	Shipped  *bool
}

func (o *order) Fields() Fields {
	return Fields{
		"ID":       Value(&o.ID),
		"Customer": Value(&o.Customer),
		"Total":    Value(&o.Total),
		"Note":     Null(&o.Note),
		"Shipped":  Pointer(&o.Shipped),
	}
}

var orderSchema = []string{
	`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer TEXT NOT NULL, total REAL, note TEXT, shipped BOOLEAN)`,
}
