package database

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Field receives the value of one column. value is nil for SQL NULL.
type Field interface {
	Set(value any) error
}

// FieldFunc adapts a function to a Field.
type FieldFunc func(value any) error

// Set calls f(value).
func (f FieldFunc) Set(value any) error { return f(value) }

// Fields binds field names to the fields of one record instance.
// Names are matched against column names ignoring case.
type Fields map[string]Field

// Record is the constraint satisfied by record shapes: a pointer to T that
// can describe its own fields.
//
//	type Order struct {
//		ID     int64
//		Status string
//		Note   sql.Null[string]
//	}
//
//	func (o *Order) Fields() database.Fields {
//		return database.Fields{
//			"ID":     database.Value(&o.ID),
//			"Status": database.Value(&o.Status),
//			"Note":   database.Null(&o.Note),
//		}
//	}
type Record[T any] interface {
	*T
	Fields() Fields
}

// ErrNull is returned by NotNull fields when the column is NULL.
var ErrNull = errors.New("column is NULL")

// Value binds a non-nullable field. NULL leaves the zero value.
func Value[T any](dst *T) Field {
	return FieldFunc(func(value any) error {
		if value == nil {
			var zero T
			*dst = zero
			return nil
		}
		v, err := Convert[T](value)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	})
}

// Null binds a sql.Null field; the value is converted as T.
func Null[T any](dst *sql.Null[T]) Field {
	return FieldFunc(func(value any) error {
		if value == nil {
			*dst = sql.Null[T]{}
			return nil
		}
		v, err := Convert[T](value)
		if err != nil {
			return err
		}
		*dst = sql.Null[T]{V: v, Valid: true}
		return nil
	})
}

// Pointer binds a pointer field; NULL sets it to nil.
func Pointer[T any](dst **T) Field {
	return FieldFunc(func(value any) error {
		if value == nil {
			*dst = nil
			return nil
		}
		v, err := Convert[T](value)
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	})
}

// NotNull rejects NULL for f with ErrNull.
func NotNull(f Field) Field {
	return FieldFunc(func(value any) error {
		if value == nil {
			return ErrNull
		}
		return f.Set(value)
	})
}

// Convert converts a driver value to T, parsing and widening where the
// value's meaning is unambiguous ("42" to int, int64 to float64, 1 to true).
// Numbers that do not fit T fail with ErrOverflow; floats converted to an
// integer type are rounded half to even; blank strings are not numbers.
func Convert[T any](value any) (T, error) {
	var zero T
	if v, ok := value.(T); ok {
		return v, nil
	}

	// text often arrives as []byte
	if b, ok := value.([]byte); ok {
		if _, wantBytes := any(zero).([]byte); !wantBytes {
			value = string(b)
		}
	}

	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case string:
		out, err = cast.ToStringE(value)
	case []byte:
		var s string
		s, err = cast.ToStringE(value)
		out = []byte(s)
	case bool:
		out, err = toBool(value)
	case int:
		out, err = toSigned[int](value)
	case int8:
		out, err = toSigned[int8](value)
	case int16:
		out, err = toSigned[int16](value)
	case int32:
		out, err = toSigned[int32](value)
	case int64:
		out, err = toSigned[int64](value)
	case uint:
		out, err = toUnsigned[uint](value)
	case uint8:
		out, err = toUnsigned[uint8](value)
	case uint16:
		out, err = toUnsigned[uint16](value)
	case uint32:
		out, err = toUnsigned[uint32](value)
	case uint64:
		out, err = toUnsigned[uint64](value)
	case float32:
		out, err = toFloat32(value)
	case float64:
		out, err = toFloat64(value)
	case time.Time:
		out, err = cast.ToTimeE(value)
	case time.Duration:
		out, err = cast.ToDurationE(value)
	default:
		return zero, fmt.Errorf("cannot convert %T to %T", value, zero)
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

// ErrOverflow reports a number that does not fit the target type.
var ErrOverflow = errors.New("value out of range")

var errBlankNumber = errors.New("blank string is not a number")

func toSigned[T int | int8 | int16 | int32 | int64](value any) (T, error) {
	n, err := toInt64(value)
	if err != nil {
		return 0, err
	}
	if int64(T(n)) != n {
		return 0, fmt.Errorf("%w: %v does not fit in %T", ErrOverflow, value, T(0))
	}
	return T(n), nil
}

func toUnsigned[T uint | uint8 | uint16 | uint32 | uint64](value any) (T, error) {
	n, err := toUint64(value)
	if err != nil {
		return 0, err
	}
	if uint64(T(n)) != n {
		return 0, fmt.Errorf("%w: %v does not fit in %T", ErrOverflow, value, T(0))
	}
	return T(n), nil
}

// toInt64 widens value to int64. Floats are rounded half to even.
func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, errBlankNumber
		}
		return cast.ToInt64E(s)
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case uint:
		return uintToInt64(uint64(v))
	case uint64:
		return uintToInt64(v)
	default:
		return cast.ToInt64E(value)
	}
}

func uintToInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d does not fit in int64", ErrOverflow, v)
	}
	return int64(v), nil
}

func floatToInt64(f float64) (int64, error) {
	r := math.RoundToEven(f)
	if math.IsNaN(r) || r < math.MinInt64 || r >= 1<<63 {
		return 0, fmt.Errorf("%w: %v does not fit in int64", ErrOverflow, f)
	}
	return int64(r), nil
}

// toUint64 is toInt64 for unsigned targets; negative values overflow.
func toUint64(value any) (uint64, error) {
	switch v := value.(type) {
	case uint64:
		return v, nil
	case uint:
		return uint64(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, errBlankNumber
		}
		return cast.ToUint64E(s)
	case float32, float64:
		r := math.RoundToEven(cast.ToFloat64(v))
		if math.IsNaN(r) || r < 0 || r >= 1<<64 {
			return 0, fmt.Errorf("%w: %v does not fit in uint64", ErrOverflow, v)
		}
		return uint64(r), nil
	}

	n, err := toInt64(value)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrOverflow, n)
	}
	return uint64(n), nil
}

func toFloat64(value any) (float64, error) {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, errBlankNumber
		}
		value = s
	}
	return cast.ToFloat64E(value)
}

func toFloat32(value any) (float32, error) {
	f, err := toFloat64(value)
	if err != nil {
		return 0, err
	}
	if !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
		return 0, fmt.Errorf("%w: %v does not fit in float32", ErrOverflow, value)
	}
	return float32(f), nil
}

func toBool(value any) (bool, error) {
	if s, ok := value.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "1", "t", "true", "y", "yes":
			return true, nil
		case "0", "f", "false", "n", "no":
			return false, nil
		}
	}
	return cast.ToBoolE(value)
}

// foldFields indexes fields by lower-cased name.
func foldFields(fields Fields) (map[string]Field, error) {
	folded := make(map[string]Field, len(fields))
	for name, f := range fields {
		k := strings.ToLower(name)
		if _, dup := folded[k]; dup {
			return nil, fmt.Errorf("more than one field is named %q ignoring case", name)
		}
		folded[k] = f
	}
	return folded, nil
}
