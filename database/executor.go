package database

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
)

// query binds params, runs query on a fresh connection and hands the rows to fn.
// Bound arguments are cleared before returning.
func (h *Handle) query(ctx context.Context, op, query string, params []Param, fn func(*sql.Rows) error) error {
	return h.withConn(ctx, op, query, func(ctx context.Context, conn Conn) error {
		text, args, err := bindParams(h.provider, query, params)
		if err != nil {
			return err
		}
		defer clear(args)

		rows, err := conn.QueryContext(ctx, text, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		if err := fn(rows); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return rows.Close()
	})
}

// scanBuffer receives one row of driver values.
type scanBuffer struct {
	values []any
	dest   []any
}

func newScanBuffer(n int) *scanBuffer {
	b := &scanBuffer{values: make([]any, n), dest: make([]any, n)}
	for i := range b.values {
		b.dest[i] = &b.values[i]
	}
	return b
}

func (b *scanBuffer) scan(rows *sql.Rows) error {
	return rows.Scan(b.dest...)
}

// release drops references to the last row's values.
func (b *scanBuffer) release() {
	clear(b.values)
}

// Scalar returns the first column of the first row, or nil when there are no rows.
func (h *Handle) Scalar(ctx context.Context, query string, params ...Param) (any, error) {
	var value any
	err := h.query(ctx, "scalar", query, params, func(rows *sql.Rows) error {
		columns, err := rows.Columns()
		if err != nil {
			return err
		}
		if len(columns) == 0 || !rows.Next() {
			return nil
		}

		buf := newScanBuffer(len(columns))
		defer buf.release()
		if err := buf.scan(rows); err != nil {
			return err
		}
		value = buf.values[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// ScalarAs returns the scalar result cast to T. A NULL result fails with
// ErrCast unless T itself can hold nil.
func ScalarAs[T any](ctx context.Context, h *Handle, query string, params ...Param) (T, error) {
	value, err := h.Scalar(ctx, query, params...)
	if err != nil {
		var zero T
		return zero, err
	}
	return castValue[T](query, value, false)
}

// ScalarOrDefault is ScalarAs except that a NULL or missing result yields the zero T.
func ScalarOrDefault[T any](ctx context.Context, h *Handle, query string, params ...Param) (T, error) {
	value, err := h.Scalar(ctx, query, params...)
	if err != nil {
		var zero T
		return zero, err
	}
	return castValue[T](query, value, true)
}

// Column returns the first column of every row, in row order. A result
// without columns fails with ErrNoColumns; a result without rows is empty.
func (h *Handle) Column(ctx context.Context, query string, params ...Param) ([]any, error) {
	values := []any{}
	err := h.query(ctx, "column", query, params, func(rows *sql.Rows) error {
		columns, err := rows.Columns()
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			return &Error{Kind: KindNoColumns, Database: h.name, Query: query}
		}

		buf := newScanBuffer(len(columns))
		defer buf.release()
		for rows.Next() {
			if err := buf.scan(rows); err != nil {
				return err
			}
			values = append(values, buf.values[0])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// ColumnAs is Column with every value cast to T.
func ColumnAs[T any](ctx context.Context, h *Handle, query string, params ...Param) ([]T, error) {
	values, err := h.Column(ctx, query, params...)
	if err != nil {
		return nil, err
	}

	out := make([]T, len(values))
	for i, v := range values {
		t, err := castValue[T](query, v, false)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// NonQuery runs a data-modification statement and returns the affected row count.
func (h *Handle) NonQuery(ctx context.Context, query string, params ...Param) (int64, error) {
	var affected int64
	err := h.withConn(ctx, "non_query", query, func(ctx context.Context, conn Conn) error {
		text, args, err := bindParams(h.provider, query, params)
		if err != nil {
			return err
		}
		defer clear(args)

		result, err := conn.ExecContext(ctx, text, args...)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// castValue performs the strict cast used by ScalarAs and ColumnAs. The only
// coercion applied is []byte to string, the form many drivers use for text.
func castValue[T any](query string, value any, nilToZero bool) (T, error) {
	var zero T
	if value == nil {
		if nilToZero || nillable[T]() {
			return zero, nil
		}
		return zero, castError(query, fmt.Errorf("cannot cast NULL to %s", reflect.TypeFor[T]()))
	}

	if t, ok := value.(T); ok {
		return t, nil
	}
	if b, ok := value.([]byte); ok {
		if t, ok := any(string(b)).(T); ok {
			return t, nil
		}
	}
	return zero, castError(query, fmt.Errorf("cannot cast %T to %s", value, reflect.TypeFor[T]()))
}

func nillable[T any]() bool {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map:
		return true
	default:
		return false
	}
}
