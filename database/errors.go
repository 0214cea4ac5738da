package database

import (
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	// KindConnectionUnavailable means the handle has no connection string.
	KindConnectionUnavailable Kind = iota + 1
	// KindQueryExecution wraps a driver failure.
	KindQueryExecution
	// KindCast means a scalar could not be cast to the requested type.
	KindCast
	// KindFieldConversion means a column could not be converted to its record field.
	KindFieldConversion
	// KindNoColumns means a result had no columns where at least one was expected.
	KindNoColumns
	// KindMultipleMatch means more than one row matched where at most one may.
	KindMultipleMatch
	// KindConfigurationMissing means a required setting is absent.
	KindConfigurationMissing
	// KindInvalidParameters means the named parameters of a request are malformed.
	KindInvalidParameters
)

func (k Kind) String() string {
	switch k {
	case KindConnectionUnavailable:
		return "connection unavailable"
	case KindQueryExecution:
		return "query execution"
	case KindCast:
		return "cast"
	case KindFieldConversion:
		return "field conversion"
	case KindNoColumns:
		return "no columns"
	case KindMultipleMatch:
		return "multiple match"
	case KindConfigurationMissing:
		return "configuration missing"
	case KindInvalidParameters:
		return "invalid parameters"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrConnectionUnavailable = &Error{Kind: KindConnectionUnavailable}
	ErrQueryExecution        = &Error{Kind: KindQueryExecution}
	ErrCast                  = &Error{Kind: KindCast}
	ErrFieldConversion       = &Error{Kind: KindFieldConversion}
	ErrNoColumns             = &Error{Kind: KindNoColumns}
	ErrMultipleMatch         = &Error{Kind: KindMultipleMatch}
	ErrConfigurationMissing  = &Error{Kind: KindConfigurationMissing}
	ErrInvalidParameters     = &Error{Kind: KindInvalidParameters}
)

// Error is the error type returned by every Handle operation.
// Only the fields relevant to Kind are set.
type Error struct {
	Kind Kind
	// Database is the logical database name.
	Database string
	// Query is the query text as supplied by the caller.
	Query string
	// Column and Row locate a FieldConversion failure. Row is 0-based.
	Column string
	Row    int
	// Setting is the category/key of a missing setting.
	Setting string
	// Count is the number of matches of a MultipleMatch failure.
	Count int
	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	switch {
	case e.Kind == KindCast:
		fmt.Fprintf(&b, "error casting query [%s] result", e.Query)
	case e.Query != "":
		fmt.Fprintf(&b, "error executing query [%s]", e.Query)
	case e.Database != "":
		fmt.Fprintf(&b, "database [%s]", e.Database)
	default:
		b.WriteString("database")
	}

	switch e.Kind {
	case KindConnectionUnavailable:
		b.WriteString(": no connection string configured")
	case KindFieldConversion:
		fmt.Fprintf(&b, ": unable to obtain data from column [%s] on row %d", e.Column, e.Row)
	case KindNoColumns:
		b.WriteString(": no columns returned")
	case KindMultipleMatch:
		fmt.Fprintf(&b, ": %d records matched, expected at most 1", e.Count)
	case KindConfigurationMissing:
		fmt.Fprintf(&b, ": setting [%s] has not been defined", e.Setting)
	case KindInvalidParameters:
		b.WriteString(": invalid parameters")
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func queryError(database, query string, err error) *Error {
	return &Error{Kind: KindQueryExecution, Database: database, Query: query, Err: err}
}

func castError(query string, err error) *Error {
	return &Error{Kind: KindCast, Query: query, Err: err}
}

// MissingSetting returns a ConfigurationMissing error for category/key.
func MissingSetting(database, category, key string) *Error {
	return &Error{Kind: KindConfigurationMissing, Database: database, Setting: category + "." + key}
}
