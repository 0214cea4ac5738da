package database

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMetricsCountConnectionsAndPolls(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	path := sqliteFile(t, "metrics.db", eventSchema)
	h, err := New("events", path, WithMetrics(metrics))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = h.Scalar(ctx, "SELECT count(*) FROM events")
	require.NoError(t, err)
	_, err = h.Scalar(ctx, "SELEKT")
	require.Error(t, err)

	_, found, err := TrySingleRecord[event](ctx, h, 25*time.Millisecond, 10*time.Millisecond, "SELECT * FROM events")
	require.NoError(t, err)
	require.False(t, found)

	opened := testutil.ToFloat64(metrics.ConnectionsOpened)
	assert.GreaterOrEqual(t, opened, 4.0)
	assert.Equal(t, opened, testutil.ToFloat64(metrics.ConnectionsClosed))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Operations.WithLabelValues("scalar", "error")))
	assert.Equal(t, opened-2, testutil.ToFloat64(metrics.PollAttempts))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.PollDuration))
}

func TestTracingRecordsOperations(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	path := sqliteFile(t, "trace.db", eventSchema)
	h, err := New("events", path, WithTracer(provider.Tracer("test")))
	require.NoError(t, err)

	_, err = h.NonQuery(context.Background(), "INSERT INTO events VALUES (1, 'created')")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "dbprobe.non_query", spans[0].Name())

	var statement string
	for _, attr := range spans[0].Attributes() {
		if attr.Key == "db.statement" {
			statement = attr.Value.AsString()
		}
	}
	assert.Equal(t, "INSERT INTO events VALUES (1, 'created')", statement)
}
