package database

import (
	"context"
	"database/sql"
	"strings"
)

// Records runs query and maps every row onto a new T, in row order.
//
// Each column is assigned to the field of the same name ignoring case.
// Columns without a field are skipped and fields without a column keep
// their zero value. A conversion failure aborts the whole call with
// ErrFieldConversion naming the column and 0-based row.
func Records[T any, P Record[T]](ctx context.Context, h *Handle, query string, params ...Param) ([]T, error) {
	records := []T{}
	err := h.query(ctx, "records", query, params, func(rows *sql.Rows) error {
		columns, err := rows.Columns()
		if err != nil {
			return err
		}

		buf := newScanBuffer(len(columns))
		defer buf.release()

		for row := 0; rows.Next(); row++ {
			if err := buf.scan(rows); err != nil {
				return err
			}

			var record T
			fields, err := foldFields(P(&record).Fields())
			if err != nil {
				return &Error{Kind: KindFieldConversion, Database: h.name, Query: query, Row: row, Err: err}
			}

			for i, column := range columns {
				field, ok := fields[strings.ToLower(column)]
				if !ok {
					continue
				}
				if err := field.Set(buf.values[i]); err != nil {
					return &Error{Kind: KindFieldConversion, Database: h.name, Query: query, Column: column, Row: row, Err: err}
				}
			}

			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ResultSet is a fully read query result.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// Row is one result row. A nil value is SQL NULL.
type Row struct {
	columns []string
	values  []any
}

// Columns returns the column names in result order.
func (r Row) Columns() []string { return r.columns }

// Values returns the column values in result order.
func (r Row) Values() []any { return r.values }

// Value returns the value of the named column, matched ignoring case.
func (r Row) Value(column string) (any, bool) {
	for i, c := range r.columns {
		if strings.EqualFold(c, column) {
			return r.values[i], true
		}
	}
	return nil, false
}

// IsZero reports whether r is the zero Row.
func (r Row) IsZero() bool { return r.columns == nil }

// Rows runs query and returns every row without mapping.
func (h *Handle) Rows(ctx context.Context, query string, params ...Param) (*ResultSet, error) {
	result := &ResultSet{}
	err := h.query(ctx, "rows", query, params, func(rows *sql.Rows) error {
		columns, err := rows.Columns()
		if err != nil {
			return err
		}
		result.Columns = columns

		buf := newScanBuffer(len(columns))
		defer buf.release()
		for rows.Next() {
			if err := buf.scan(rows); err != nil {
				return err
			}
			values := make([]any, len(columns))
			copy(values, buf.values)
			result.Rows = append(result.Rows, Row{columns: columns, values: values})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
