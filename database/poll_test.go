package database

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	ID   int64
	Kind string
}

func (e *event) Fields() Fields {
	return Fields{
		"id":   Value(&e.ID),
		"kind": Value(&e.Kind),
	}
}

var eventSchema = `CREATE TABLE events (id INTEGER PRIMARY KEY, kind TEXT NOT NULL)`

func TestSingleRecordFoundImmediately(t *testing.T) {
	h, counter := newSQLiteHandle(t, eventSchema, `INSERT INTO events VALUES (7, 'created')`)

	e, err := SingleRecordWithin[event](context.Background(), h, time.Second, 50*time.Millisecond,
		"SELECT * FROM events WHERE kind = @kind", P("kind", "created"))
	require.NoError(t, err)
	assert.Equal(t, event{ID: 7, Kind: "created"}, e)
	assert.Equal(t, int32(1), counter.opens.Load())
	assert.True(t, counter.balanced())
}

func TestSingleRecordMultipleMatch(t *testing.T) {
	h, counter := newSQLiteHandle(t, eventSchema,
		`INSERT INTO events VALUES (1, 'created')`,
		`INSERT INTO events VALUES (2, 'created')`)

	_, err := SingleRecordWithin[event](context.Background(), h, time.Second, 50*time.Millisecond,
		"SELECT * FROM events WHERE kind = 'created'")
	require.ErrorIs(t, err, ErrMultipleMatch)

	var dbErr *Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, 2, dbErr.Count)
	assert.Equal(t, int32(1), counter.opens.Load())
	assert.True(t, counter.balanced())
}

func TestSingleRecordTimesOutWithZeroValue(t *testing.T) {
	h, counter := newSQLiteHandle(t, eventSchema)

	start := time.Now()
	e, err := SingleRecordWithin[event](context.Background(), h, 200*time.Millisecond, 50*time.Millisecond,
		"SELECT * FROM events")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Zero(t, e)
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	assert.Less(t, elapsed, 300*time.Millisecond)
	assert.True(t, counter.balanced())
}

func TestTrySingleRecordReportsTimeout(t *testing.T) {
	h, _ := newSQLiteHandle(t, eventSchema)

	e, found, err := TrySingleRecord[event](context.Background(), h, 30*time.Millisecond, 10*time.Millisecond,
		"SELECT * FROM events")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, e)
}

func TestSingleRecordEventuallyPresent(t *testing.T) {
	empty := sqliteFile(t, "empty.db", eventSchema)
	ready := sqliteFile(t, "ready.db", eventSchema, `INSERT INTO events VALUES (3, 'shipped')`)

	var attempts atomic.Int32
	h, err := New("events", empty, WithConnector(ConnectorFunc(func(ctx context.Context) (Conn, error) {
		// the row becomes visible on the third attempt
		if attempts.Add(1) < 3 {
			return NewSQLConnector(SQLite, empty).Connect(ctx)
		}
		return NewSQLConnector(SQLite, ready).Connect(ctx)
	})))
	require.NoError(t, err)

	const interval = 50 * time.Millisecond
	start := time.Now()
	e, found, err := TrySingleRecord[event](context.Background(), h, 5*time.Second, interval,
		"SELECT id, kind FROM events WHERE id = @id", P("id", 3))
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, event{ID: 3, Kind: "shipped"}, e)
	assert.Equal(t, int32(3), attempts.Load())
	assert.GreaterOrEqual(t, elapsed, 2*interval)
	assert.Less(t, elapsed, 3*interval)
}

func TestSingleRecordCancelled(t *testing.T) {
	h, counter := newSQLiteHandle(t, eventSchema)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := SingleRecordWithin[event](ctx, h, 10*time.Second, time.Second, "SELECT * FROM events")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrQueryExecution)
	assert.Contains(t, err.Error(), "SELECT * FROM events")

	var dbErr *Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, "SELECT * FROM events", dbErr.Query)
	assert.Equal(t, "fixture", dbErr.Database)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, counter.balanced())
}

func TestSingleRecordUsesHandlePolicy(t *testing.T) {
	path := sqliteFile(t, "policy.db", eventSchema)
	h, err := New("events", path, WithPolicy(Policy{Timeout: 40 * time.Millisecond, Interval: 10 * time.Millisecond}))
	require.NoError(t, err)

	start := time.Now()
	e, err := SingleRecord[event](context.Background(), h, "SELECT * FROM events")
	require.NoError(t, err)
	assert.Zero(t, e)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSingleRow(t *testing.T) {
	h, _ := newSQLiteHandle(t, eventSchema, `INSERT INTO events VALUES (9, 'paid')`)

	row, found, err := SingleRow(context.Background(), h, time.Second, 10*time.Millisecond,
		"SELECT kind FROM events WHERE id = @id", P("id", 9))
	require.NoError(t, err)
	require.True(t, found)

	v, ok := row.Value("KIND")
	require.True(t, ok)
	assert.Equal(t, "paid", toString(v))

	row, found, err = SingleRow(context.Background(), h, 20*time.Millisecond, 10*time.Millisecond,
		"SELECT kind FROM events WHERE id = 10")
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, row.IsZero())
}
