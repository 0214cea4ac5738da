package database

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Provider names the driver family behind a connection string.
type Provider string

const (
	// PostgreSQL uses github.com/lib/pq.
	PostgreSQL Provider = "postgresql"
	// PgX uses the database/sql adapter of github.com/jackc/pgx/v5.
	PgX Provider = "pgx"
	// MySQL uses github.com/go-sql-driver/mysql.
	MySQL Provider = "mysql"
	// SQLite uses github.com/mattn/go-sqlite3.
	SQLite Provider = "sqlite"
)

// ParseProvider maps a provider name, including common aliases, to a Provider.
func ParseProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgresql", "postgres", "pq":
		return PostgreSQL, nil
	case "pgx":
		return PgX, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", name)
	}
}

// DetectProvider guesses the provider from the shape of a connection string.
// It returns false when the string is not recognisable.
func DetectProvider(connString string) (Provider, bool) {
	s := strings.ToLower(strings.TrimSpace(connString))
	switch {
	case strings.HasPrefix(s, "postgres://"), strings.HasPrefix(s, "postgresql://"):
		return PostgreSQL, true
	case strings.HasPrefix(s, "mysql://"), strings.Contains(s, "@tcp("), strings.Contains(s, "@unix("):
		return MySQL, true
	case strings.HasPrefix(s, "sqlite://"), strings.HasPrefix(s, "file:"), s == ":memory:",
		strings.HasSuffix(s, ".db"), strings.HasSuffix(s, ".sqlite"), strings.HasSuffix(s, ".sqlite3"):
		return SQLite, true
	case strings.Contains(s, "host=") || strings.Contains(s, "dbname="):
		return PostgreSQL, true
	default:
		return "", false
	}
}

// DriverName is the database/sql driver registered for the provider.
func (p Provider) DriverName() string {
	switch p {
	case PostgreSQL:
		return "postgres"
	case PgX:
		return "pgx"
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite3"
	default:
		return ""
	}
}

// DataSourceName converts a connection string into the form the driver expects.
func (p Provider) DataSourceName(connString string) string {
	s := strings.TrimSpace(connString)
	switch p {
	case MySQL:
		// go-sql-driver/mysql takes a bare DSN
		return strings.TrimPrefix(s, "mysql://")
	case SQLite:
		return strings.TrimPrefix(s, "sqlite://")
	default:
		return s
	}
}

type placeholderStyle int

const (
	// named arguments are passed through as sql.NamedArg
	placeholderNamed placeholderStyle = iota
	// @name is rewritten to $1, $2, ... once per distinct name
	placeholderDollar
	// @name is rewritten to ? once per occurrence
	placeholderQuestion
)

func (p Provider) placeholders() placeholderStyle {
	switch p {
	case PostgreSQL, PgX:
		return placeholderDollar
	case MySQL:
		return placeholderQuestion
	default:
		return placeholderNamed
	}
}

// QuoteIdentifier quotes a possibly schema-qualified identifier, part by part.
func (p Provider) QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = p.QuoteName(part)
	}
	return strings.Join(parts, ".")
}

// QuoteName quotes a single identifier such as a database name; dots are
// part of the name.
func (p Provider) QuoteName(part string) string {
	switch p {
	case PostgreSQL, PgX:
		return pq.QuoteIdentifier(part)
	case MySQL:
		return "`" + strings.ReplaceAll(part, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
	}
}

func (p Provider) databaseExistsQuery() string {
	switch p {
	case PostgreSQL, PgX:
		return "SELECT count(*) FROM pg_database WHERE datname = @name"
	case MySQL:
		return "SELECT count(*) FROM information_schema.schemata WHERE schema_name = @name"
	default:
		return "SELECT count(*) FROM pragma_database_list WHERE name = @name"
	}
}

func (p Provider) tableExistsQuery() string {
	switch p {
	case PostgreSQL, PgX:
		return "SELECT count(*) FROM information_schema.tables WHERE table_name = @name"
	case MySQL:
		return "SELECT count(*) FROM information_schema.tables WHERE table_name = @name AND table_schema = DATABASE()"
	default:
		return "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = @name"
	}
}

func (p Provider) serverVersionQuery() string {
	switch p {
	case PostgreSQL, PgX:
		return "SHOW server_version"
	case MySQL:
		return "SELECT VERSION()"
	default:
		return "SELECT sqlite_version()"
	}
}
