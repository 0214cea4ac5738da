package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/satishbabariya/dbprobe/settings"
)

// HandleSuite runs every operation against a SQLite file database and checks
// that each call leaves no connection open.
type HandleSuite struct {
	suite.Suite
	ctx     context.Context
	h       *Handle
	counter *countingConnector
}

func TestHandleSuite(t *testing.T) {
	suite.Run(t, new(HandleSuite))
}

func (s *HandleSuite) SetupTest() {
	s.ctx = context.Background()
	s.h, s.counter = newSQLiteHandle(s.T(), append(orderSchema,
		`INSERT INTO orders (id, customer, total, note, shipped) VALUES (1, 'ada', 12.5, NULL, 1)`,
		`INSERT INTO orders (id, customer, total, note, shipped) VALUES (2, 'grace', 7, 'gift', NULL)`,
	)...)
}

func (s *HandleSuite) TearDownTest() {
	s.True(s.counter.balanced(), "opens %d closes %d", s.counter.opens.Load(), s.counter.closes.Load())
}

func (s *HandleSuite) TestScalar() {
	v, err := s.h.Scalar(s.ctx, "SELECT customer FROM orders WHERE id = @id", P("id", 2))
	s.Require().NoError(err)
	s.Equal("grace", toString(v))

	v, err = s.h.Scalar(s.ctx, "SELECT customer FROM orders WHERE id = @id", P("id", 99))
	s.Require().NoError(err)
	s.Nil(v)
}

func (s *HandleSuite) TestScalarAs() {
	n, err := ScalarAs[int64](s.ctx, s.h, "SELECT count(*) FROM orders")
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	name, err := ScalarAs[string](s.ctx, s.h, "SELECT customer FROM orders WHERE id = 1")
	s.Require().NoError(err)
	s.Equal("ada", name)

	_, err = ScalarAs[string](s.ctx, s.h, "SELECT count(*) FROM orders")
	s.ErrorIs(err, ErrCast)
	s.Contains(err.Error(), "SELECT count(*) FROM orders")

	_, err = ScalarAs[int64](s.ctx, s.h, "SELECT note FROM orders WHERE id = 1")
	s.ErrorIs(err, ErrCast)

	ptr, err := ScalarAs[*int64](s.ctx, s.h, "SELECT note FROM orders WHERE id = 1")
	s.NoError(err)
	s.Nil(ptr)
}

func (s *HandleSuite) TestScalarOrDefault() {
	n, err := ScalarOrDefault[int64](s.ctx, s.h, "SELECT id FROM orders WHERE id = 99")
	s.Require().NoError(err)
	s.Zero(n)

	n, err = ScalarOrDefault[int64](s.ctx, s.h, "SELECT id FROM orders WHERE id = 2")
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	_, err = ScalarOrDefault[bool](s.ctx, s.h, "SELECT customer FROM orders WHERE id = 2")
	s.ErrorIs(err, ErrCast)
}

func (s *HandleSuite) TestColumn() {
	values, err := s.h.Column(s.ctx, "SELECT note FROM orders ORDER BY id")
	s.Require().NoError(err)
	s.Require().Len(values, 2)
	s.Nil(values[0])
	s.Equal("gift", toString(values[1]))

	ids, err := ColumnAs[int64](s.ctx, s.h, "SELECT id FROM orders ORDER BY id DESC")
	s.Require().NoError(err)
	s.Equal([]int64{2, 1}, ids)

	_, err = ColumnAs[string](s.ctx, s.h, "SELECT note FROM orders ORDER BY id")
	s.ErrorIs(err, ErrCast)
}

func (s *HandleSuite) TestColumnWithoutColumnsOrRows() {
	_, err := s.h.Column(s.ctx, "UPDATE orders SET total = total")
	s.ErrorIs(err, ErrNoColumns)

	values, err := s.h.Column(s.ctx, "SELECT id FROM orders WHERE 1 = 0")
	s.Require().NoError(err)
	s.Empty(values)
}

func (s *HandleSuite) TestNonQuery() {
	n, err := s.h.NonQuery(s.ctx, "UPDATE orders SET total = @total WHERE customer = @customer",
		P("total", 20), P("customer", "ada"))
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	total, err := ScalarAs[float64](s.ctx, s.h, "SELECT total FROM orders WHERE id = 1")
	s.Require().NoError(err)
	s.Equal(20.0, total)
}

func (s *HandleSuite) TestQueryErrorsCarryQueryText() {
	const bad = "SELEKT nothing"
	_, err := s.h.Scalar(s.ctx, bad)
	s.ErrorIs(err, ErrQueryExecution)

	var dbErr *Error
	s.Require().ErrorAs(err, &dbErr)
	s.Equal(bad, dbErr.Query)
	s.Error(dbErr.Unwrap())

	_, err = s.h.NonQuery(s.ctx, "INSERT INTO missing VALUES (1)")
	s.ErrorIs(err, ErrQueryExecution)

	_, err = Records[order](s.ctx, s.h, bad)
	s.ErrorIs(err, ErrQueryExecution)
}

func (s *HandleSuite) TestDuplicateParameters() {
	_, err := s.h.Scalar(s.ctx, "SELECT @id", P("id", 1), P("ID", 2))
	s.ErrorIs(err, ErrInvalidParameters)
}

func (s *HandleSuite) TestRecords() {
	orders, err := Records[order](s.ctx, s.h, "SELECT * FROM orders ORDER BY id")
	s.Require().NoError(err)
	s.Require().Len(orders, 2)

	s.Equal(int64(1), orders[0].ID)
	s.Equal("ada", orders[0].Customer)
	s.Equal(12.5, orders[0].Total)
	s.False(orders[0].Note.Valid)
	s.Require().NotNil(orders[0].Shipped)
	s.True(*orders[0].Shipped)

	s.Equal("gift", orders[1].Note.V)
	s.True(orders[1].Note.Valid)
	s.Nil(orders[1].Shipped)
}

func (s *HandleSuite) TestRecordsEmpty() {
	orders, err := Records[order](s.ctx, s.h, "SELECT * FROM orders WHERE id > @id", P("id", 10))
	s.Require().NoError(err)
	s.NotNil(orders)
	s.Empty(orders)
}

func (s *HandleSuite) TestRecordsConversionFailure() {
	_, err := s.h.NonQuery(s.ctx, "INSERT INTO orders (id, customer, total) VALUES (3, 'linus', 'lots')")
	s.Require().NoError(err)

	_, err = Records[order](s.ctx, s.h, "SELECT id, customer, total FROM orders ORDER BY id")
	s.Require().ErrorIs(err, ErrFieldConversion)

	var dbErr *Error
	s.Require().ErrorAs(err, &dbErr)
	s.Equal("total", dbErr.Column)
	s.Equal(2, dbErr.Row)
	s.Contains(err.Error(), "column [total] on row 2")
}

func (s *HandleSuite) TestRows() {
	result, err := s.h.Rows(s.ctx, "SELECT id, note AS Remark FROM orders ORDER BY id")
	s.Require().NoError(err)
	s.Equal([]string{"id", "Remark"}, result.Columns)
	s.Require().Len(result.Rows, 2)

	v, ok := result.Rows[1].Value("remark")
	s.True(ok)
	s.Equal("gift", toString(v))

	v, ok = result.Rows[0].Value("REMARK")
	s.True(ok)
	s.Nil(v)

	_, ok = result.Rows[0].Value("missing")
	s.False(ok)
}

func (s *HandleSuite) TestAdministration() {
	s.NoError(s.h.CanConnect(s.ctx))

	exists, err := s.h.TableExists(s.ctx, "orders")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.h.DatabaseExists(s.ctx, "main")
	s.Require().NoError(err)
	s.True(exists)

	cleared, err := s.h.ClearTable(s.ctx, "orders")
	s.Require().NoError(err)
	s.Equal(int64(2), cleared)

	s.Require().NoError(s.h.DropTable(s.ctx, "orders"))
	exists, err = s.h.TableExists(s.ctx, "orders")
	s.Require().NoError(err)
	s.False(exists)

	s.NoError(s.h.DropTable(s.ctx, "orders"))

	v, err := s.h.ServerVersion(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, v.Segments()[0])
}

func toString(v any) string {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return ""
	}
}

func TestNoConnectionHandle(t *testing.T) {
	h, err := New("reporting", "   ")
	require.NoError(t, err)
	assert.False(t, h.HasConnection())

	ctx := context.Background()
	_, err = h.Scalar(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrConnectionUnavailable)

	_, err = Records[order](ctx, h, "SELECT * FROM orders")
	assert.ErrorIs(t, err, ErrConnectionUnavailable)

	_, err = h.NonQuery(ctx, "DELETE FROM orders")
	assert.ErrorIs(t, err, ErrConnectionUnavailable)

	assert.ErrorIs(t, h.CanConnect(ctx), ErrConnectionUnavailable)
}

func TestConnectFailureIsQueryError(t *testing.T) {
	counter := &countingConnector{inner: ConnectorFunc(func(context.Context) (Conn, error) {
		return nil, errors.New("connection refused")
	})}
	h, err := New("orders", "postgres://localhost:1/orders", WithConnector(counter))
	require.NoError(t, err)

	_, err = h.Scalar(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrQueryExecution)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Zero(t, counter.opens.Load())
	assert.True(t, counter.balanced())
}

func TestUnknownProvider(t *testing.T) {
	_, err := New("orders", "something-odd")
	assert.ErrorIs(t, err, ErrConfigurationMissing)

	h, err := New("orders", "something-odd", WithProvider(PostgreSQL))
	require.NoError(t, err)
	assert.Equal(t, PostgreSQL, h.Provider())
}

func TestFromSettings(t *testing.T) {
	path := sqliteFile(t, "settings.db", orderSchema...)
	store := settings.FromMap(map[string]map[string]any{
		"Orders": {
			settings.KeyConnectionString: path,
			settings.KeyProvider:         "sqlite3",
		},
		settings.DatabaseCategory: {
			settings.KeyTimeout:      200,
			settings.KeyPollInterval: 20,
		},
	})

	h, err := FromSettings("Orders", store)
	require.NoError(t, err)
	assert.Equal(t, SQLite, h.Provider())
	assert.Equal(t, Policy{Timeout: 200 * time.Millisecond, Interval: 20 * time.Millisecond}, h.Policy())
	assert.NoError(t, h.CanConnect(context.Background()))

	_, err = FromSettings("Billing", store)
	assert.ErrorIs(t, err, ErrConfigurationMissing)
}

func TestFromSettingsBlankConnectionString(t *testing.T) {
	store := settings.FromMap(map[string]map[string]any{
		"Orders": {settings.KeyConnectionString: ""},
	})

	h, err := FromSettings("Orders", store)
	require.NoError(t, err)
	assert.False(t, h.HasConnection())
	assert.Equal(t, DefaultPolicy(), h.Policy())
}
