package sql

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonah3272/boliviablue/provider/currencies"
	"github.com/jonah3272/boliviablue/storage/types"
)

type (
	execDelegate  func(context.Context, string, ...any) (pgconn.CommandTag, error)
	queryDelegate func(context.Context, string, ...any) (pgx.Rows, error)
)

type mockDB struct {
	execFn  execDelegate
	queryFn queryDelegate
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, args...)
	}

	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}

	return nil, errors.New("not implemented")
}

func TestStorage_SaveExchangeRate(t *testing.T) {
	t.Parallel()

	t.Run("valid rate", func(t *testing.T) {
		t.Parallel()

		var (
			capturedSQL  string
			capturedArgs []any

			asOf = time.Date(2026, time.October, 19, 8, 0, 0, 0, time.FixedZone("BOT", -4*60*60))

			db = &mockDB{
				execFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
					capturedSQL = sql
					capturedArgs = args

					return pgconn.NewCommandTag("INSERT 0 1"), nil
				},
			}
		)

		s := NewStorage(db)

		require.NoError(t, s.SaveExchangeRate(context.Background(), &types.ExchangeRate{
			AsOf:      asOf,
			FetchedAt: asOf,
			Base:      currencies.USD,
			Target:    currencies.BOB,
			RateType:  types.RateTypeBUY,
			Source:    types.SourceBinanceP2P,
			Rate:      9.4512,
		}))

		assert.Equal(t, saveExchangeRate, capturedSQL)
		require.Len(t, capturedArgs, 7)

		assert.Equal(t, "USD", capturedArgs[0])
		assert.Equal(t, "BOB", capturedArgs[1])
		assert.Equal(t, "BUY", capturedArgs[3])
		assert.Equal(t, "BinanceP2P", capturedArgs[4])

		numeric, ok := capturedArgs[2].(pgtype.Numeric)
		require.True(t, ok)
		assert.InDelta(t, 9.4512, numericToFloat(numeric), 1e-9)

		ts, ok := capturedArgs[5].(pgtype.Timestamptz)
		require.True(t, ok)
		assert.Equal(t, time.UTC, ts.Time.Location())
		assert.True(t, asOf.Equal(ts.Time))
	})

	t.Run("exec error", func(t *testing.T) {
		t.Parallel()

		var (
			errExec = errors.New("connection reset")

			db = &mockDB{
				execFn: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
					return pgconn.CommandTag{}, errExec
				},
			}
		)

		err := NewStorage(db).SaveExchangeRate(context.Background(), &types.ExchangeRate{})

		assert.ErrorIs(t, err, errExec)
	})
}

func TestStorage_QueryErrors(t *testing.T) {
	t.Parallel()

	var (
		errQuery = errors.New("relation does not exist")

		db = &mockDB{
			queryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
				return nil, errQuery
			},
		}

		s   = NewStorage(db)
		ctx = context.Background()
		q   = &types.RateQuery{Base: currencies.USD}
	)

	_, err := s.RateAsOf(ctx, q, time.Now())
	assert.ErrorIs(t, err, errQuery)

	_, err = s.RatesInRange(ctx, q, time.Now().Add(-time.Hour), time.Now())
	assert.ErrorIs(t, err, errQuery)

	_, err = s.ListSources(ctx)
	assert.ErrorIs(t, err, errQuery)

	_, err = s.ListCurrencies(ctx)
	assert.ErrorIs(t, err, errQuery)
}

func TestQueryFilters(t *testing.T) {
	t.Parallel()

	target, source, rateType := queryFilters(&types.RateQuery{Base: currencies.USD})

	assert.Nil(t, target)
	assert.Nil(t, source)
	assert.Nil(t, rateType)

	var (
		bob  = currencies.BOB
		bcb  = types.SourceBCB
		sell = types.RateTypeSELL
	)

	target, source, rateType = queryFilters(&types.RateQuery{
		Base:     currencies.USD,
		Target:   &bob,
		Source:   &bcb,
		RateType: &sell,
	})

	require.NotNil(t, target)
	require.NotNil(t, source)
	require.NotNil(t, rateType)

	assert.Equal(t, "BOB", *target)
	assert.Equal(t, "BCB", *source)
	assert.Equal(t, "SELL", *rateType)
}

func TestNumericConversion(t *testing.T) {
	t.Parallel()

	testTable := []struct {
		name  string
		value float64
	}{
		{"zero", 0},
		{"integer", 7},
		{"usd rate", 9.6512},
		{"eur rate", 10.49087341},
		{"small", 0.00012345},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(
				t,
				testCase.value,
				numericToFloat(floatToNumeric(testCase.value)),
				1e-8,
			)
		})
	}

	t.Run("invalid numeric", func(t *testing.T) {
		t.Parallel()

		assert.Zero(t, numericToFloat(pgtype.Numeric{}))
	})
}

func TestSchemaFS(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(SchemaFS, "schema")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	schema, err := SchemaFS.ReadFile("schema/" + entries[0].Name())
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(schema), "exchange_rates"))
}
