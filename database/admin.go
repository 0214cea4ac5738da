package database

import (
	"context"
	"fmt"
	"regexp"

	"github.com/hashicorp/go-version"
)

// CanConnect opens and closes a connection, returning why it failed.
func (h *Handle) CanConnect(ctx context.Context) error {
	return h.withConn(ctx, "connect", "", func(context.Context, Conn) error {
		return nil
	})
}

// DatabaseExists reports whether the server has a database called name.
func (h *Handle) DatabaseExists(ctx context.Context, name string) (bool, error) {
	query := h.provider.databaseExistsQuery()
	count, err := h.count(ctx, query, P("name", name))
	if err != nil {
		return false, err
	}
	if count > 1 {
		return false, &Error{Kind: KindMultipleMatch, Database: h.name, Query: query, Count: int(count)}
	}
	return count == 1, nil
}

// TableExists reports whether a table called table exists.
func (h *Handle) TableExists(ctx context.Context, table string) (bool, error) {
	count, err := h.count(ctx, h.provider.tableExistsQuery(), P("name", table))
	if err != nil {
		return false, err
	}
	h.logger.Debug("table lookup", "table", table, "count", count)
	return count > 0, nil
}

// ClearTable deletes every row of table and returns how many were deleted.
func (h *Handle) ClearTable(ctx context.Context, table string) (int64, error) {
	return h.NonQuery(ctx, "DELETE FROM "+h.provider.QuoteIdentifier(table))
}

// DropTable drops table if it exists.
func (h *Handle) DropTable(ctx context.Context, table string) error {
	if _, err := h.NonQuery(ctx, "DROP TABLE IF EXISTS "+h.provider.QuoteIdentifier(table)); err != nil {
		return fmt.Errorf("error dropping table [%s]: %w", table, err)
	}
	return nil
}

var leadingVersion = regexp.MustCompile(`^\d+(\.\d+)*`)

// ServerVersion returns the version reported by the database server.
func (h *Handle) ServerVersion(ctx context.Context) (*version.Version, error) {
	query := h.provider.serverVersionQuery()
	raw, err := h.Scalar(ctx, query)
	if err != nil {
		return nil, err
	}

	s, err := Convert[string](raw)
	if err != nil {
		return nil, castError(query, err)
	}

	// "16.2 (Debian 16.2-1.pgdg120+2)", "8.0.36-0ubuntu0.22.04.1"
	v := leadingVersion.FindString(s)
	if v == "" {
		return nil, castError(query, fmt.Errorf("unrecognised server version %q", s))
	}
	return version.NewVersion(v)
}

func (h *Handle) count(ctx context.Context, query string, params ...Param) (int64, error) {
	raw, err := h.Scalar(ctx, query, params...)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	n, err := Convert[int64](raw)
	if err != nil {
		return 0, castError(query, err)
	}
	return n, nil
}
