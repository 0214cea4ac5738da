// Package database runs parameterized queries against a named database,
// maps result rows onto record shapes and polls for records that appear
// after a delay.
//
// A Handle never keeps a connection open between calls: every operation
// connects on entry and disconnects before it returns, whatever the outcome.
// A Handle is not safe for concurrent use; give each goroutine its own.
package database

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/satishbabariya/dbprobe/internal/debug"
	"github.com/satishbabariya/dbprobe/settings"
)

const tracerName = "github.com/satishbabariya/dbprobe/database"

// Handle identifies a logical database and runs operations against it.
type Handle struct {
	name       string
	connString string
	provider   Provider
	connector  Connector
	policy     Policy
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *Metrics
}

type options struct {
	provider  Provider
	connector Connector
	store     settings.Store
	policy    *Policy
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *Metrics
}

// Option configures a Handle.
type Option func(*options)

// WithProvider sets the provider instead of detecting it from the connection string.
func WithProvider(p Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithConnector replaces the database/sql connector.
func WithConnector(c Connector) Option {
	return func(o *options) { o.connector = c }
}

// WithSettings resolves the polling policy from store.
func WithSettings(store settings.Store) Option {
	return func(o *options) { o.store = store }
}

// WithPolicy sets the polling policy, ignoring settings.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = &p }
}

// WithLogger sets the logger. Defaults to the process debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracer sets the tracer. Defaults to the global OpenTelemetry provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMetrics records connection and polling metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New creates a handle for database name using connString.
//
// An empty or blank connString yields a handle in the "no connection" state:
// construction succeeds and every operation fails with ErrConnectionUnavailable.
func New(name, connString string, opts ...Option) (*Handle, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = debug.Logger()
	}
	logger = logger.With("database", name)

	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	h := &Handle{
		name:       name,
		connString: connString,
		logger:     logger,
		tracer:     tracer,
		metrics:    o.metrics,
	}

	if o.policy != nil {
		h.policy = *o.policy
	} else {
		h.policy = ResolvePolicy(o.store, logger)
	}

	if strings.TrimSpace(connString) == "" {
		logger.Info("no connection being made as connection string is blank")
		return h, nil
	}

	h.provider = o.provider
	if h.provider == "" {
		p, ok := DetectProvider(connString)
		if !ok {
			return nil, MissingSetting(name, name, settings.KeyProvider)
		}
		h.provider = p
	}

	h.connector = o.connector
	if h.connector == nil {
		h.connector = NewSQLConnector(h.provider, connString)
	}

	return h, nil
}

// FromSettings creates a handle for the logical database name, reading its
// ConnectionString (and optional Provider) from store. The polling policy
// is resolved from the same store.
func FromSettings(name string, store settings.Store, opts ...Option) (*Handle, error) {
	if !store.HasCategory(name) {
		return nil, MissingSetting(name, name, settings.KeyConnectionString)
	}

	connString, ok := store.LookupString(name, settings.KeyConnectionString)
	if !ok {
		return nil, MissingSetting(name, name, settings.KeyConnectionString)
	}

	base := []Option{WithSettings(store)}
	if raw, ok := store.LookupString(name, settings.KeyProvider); ok && raw != "" {
		p, err := ParseProvider(raw)
		if err != nil {
			return nil, &Error{Kind: KindConfigurationMissing, Database: name, Setting: name + "." + settings.KeyProvider, Err: err}
		}
		base = append(base, WithProvider(p))
	}

	return New(name, connString, append(base, opts...)...)
}

// Name returns the logical database name.
func (h *Handle) Name() string { return h.name }

// Provider returns the provider, empty when the handle has no connection.
func (h *Handle) Provider() Provider { return h.provider }

// Policy returns the polling policy resolved at construction.
func (h *Handle) Policy() Policy { return h.policy }

// HasConnection reports whether a connection string was configured.
func (h *Handle) HasConnection() bool { return h.connector != nil }

// withConn connects, runs fn and disconnects, on every path.
func (h *Handle) withConn(ctx context.Context, op, query string, fn func(context.Context, Conn) error) error {
	ctx, span := h.tracer.Start(ctx, "dbprobe."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", string(h.provider)),
			attribute.String("db.name", h.name),
			attribute.String("db.statement", query),
		))
	defer span.End()

	err := h.connectAndRun(ctx, query, fn)
	h.metrics.operation(op, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (h *Handle) connectAndRun(ctx context.Context, query string, fn func(context.Context, Conn) error) (err error) {
	if h.connector == nil {
		return &Error{Kind: KindConnectionUnavailable, Database: h.name, Query: query}
	}

	conn, err := h.connector.Connect(ctx)
	if err != nil {
		return queryError(h.name, query, err)
	}
	h.metrics.connectionOpened()

	defer func() {
		cerr := conn.Close()
		h.metrics.connectionClosed()
		if cerr != nil && err == nil {
			err = queryError(h.name, query, cerr)
		}
	}()

	if err := fn(ctx, conn); err != nil {
		var e *Error
		if errors.As(err, &e) {
			return err
		}
		return queryError(h.name, query, err)
	}
	return nil
}
