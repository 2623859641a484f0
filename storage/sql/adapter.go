// Package sql is the Postgres storage of recorded rates
package sql

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jonah3272/boliviablue/storage/types"
)

const (
	defaultLimit = 100
	maxLimit     = 500

	// numericExp is the stored decimal precision (8dp)
	numericExp = -8
)

// DB is the subset of the pgx pool / connection API the storage uses
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Storage struct {
	db DB
}

func NewStorage(db DB) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) SaveExchangeRate(
	ctx context.Context,
	rate *types.ExchangeRate,
) error {
	fetchedAt := rate.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err := s.db.Exec(
		ctx,
		saveExchangeRate,
		rate.Base.String(),
		rate.Target.String(),
		floatToNumeric(rate.Rate),
		rate.RateType.String(),
		rate.Source.String(),
		timeToTimestamptz(rate.AsOf),
		timeToTimestamptz(fetchedAt),
	)
	if err != nil {
		return fmt.Errorf("unable to save exchange rate: %w", err)
	}

	return nil
}

func (s *Storage) RateAsOf(
	ctx context.Context,
	query *types.RateQuery,
	t time.Time,
) (*types.Page[*types.ExchangeRate], error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	target, source, rateType := queryFilters(query)

	rows, err := s.db.Query(
		ctx,
		rateAsOf,
		query.Base.String(),
		target,
		source,
		rateType,
		timeToTimestamptz(t),
		limit,
		max(query.Offset, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rates: %w", err)
	}

	var total int64

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*types.ExchangeRate, error) {
		var r exchangeRateRow

		if err := row.Scan(r.dest(&total)...); err != nil {
			return nil, err
		}

		return r.toExchangeRate(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rates: %w", err)
	}

	if len(items) == 0 {
		return &types.Page[*types.ExchangeRate]{
			Results: nil,
			Total:   0,
		}, nil // valid case
	}

	return &types.Page[*types.ExchangeRate]{
		Results: items,
		Total:   total,
	}, nil
}

func (s *Storage) RatesInRange(
	ctx context.Context,
	query *types.RateQuery,
	from, to time.Time,
) ([]*types.ExchangeRate, error) {
	target, source, rateType := queryFilters(query)

	rows, err := s.db.Query(
		ctx,
		ratesInRange,
		query.Base.String(),
		target,
		source,
		rateType,
		timeToTimestamptz(from),
		timeToTimestamptz(to),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rates in range: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*types.ExchangeRate, error) {
		var r exchangeRateRow

		if err := row.Scan(r.dest(nil)...); err != nil {
			return nil, err
		}

		return r.toExchangeRate(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rates in range: %w", err)
	}

	return items, nil
}

func (s *Storage) ListSources(ctx context.Context) ([]types.Source, error) {
	rows, err := s.db.Query(ctx, listSources)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch sources: %w", err)
	}

	results, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("unable to fetch sources: %w", err)
	}

	out := make([]types.Source, 0, len(results))

	for _, src := range results {
		out = append(out, types.Source(src))
	}

	return out, nil
}

func (s *Storage) ListCurrencies(ctx context.Context) ([]types.Currency, error) {
	rows, err := s.db.Query(ctx, listCurrencies)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch currencies: %w", err)
	}

	results, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("unable to fetch currencies: %w", err)
	}

	out := make([]types.Currency, 0, len(results))

	for _, code := range results {
		out = append(out, types.Currency(code))
	}

	return out, nil
}

// exchangeRateRow is a single scanned exchange_rates row
type exchangeRateRow struct {
	base, target     string
	rateType, source string
	rate             pgtype.Numeric
	asOf, fetchedAt  pgtype.Timestamptz
}

// dest returns the scan destinations, in column order.
// The window total is appended when total is not nil
func (r *exchangeRateRow) dest(total *int64) []any {
	dest := []any{
		&r.base,
		&r.target,
		&r.rate,
		&r.rateType,
		&r.source,
		&r.asOf,
		&r.fetchedAt,
	}

	if total != nil {
		dest = append(dest, total)
	}

	return dest
}

// toExchangeRate converts the postgres row to the common Go type
func (r *exchangeRateRow) toExchangeRate() *types.ExchangeRate {
	return &types.ExchangeRate{
		Base:      types.Currency(r.base),
		Target:    types.Currency(r.target),
		Rate:      numericToFloat(r.rate),
		RateType:  types.RateType(r.rateType),
		Source:    types.Source(r.source),
		AsOf:      timestamptzToTime(r.asOf),
		FetchedAt: timestamptzToTime(r.fetchedAt),
	}
}

// queryFilters returns the optional query filters as nullable params
func queryFilters(query *types.RateQuery) (target, source, rateType *string) {
	if query.Target != nil {
		v := query.Target.String()
		target = &v
	}

	if query.Source != nil {
		v := query.Source.String()
		source = &v
	}

	if query.RateType != nil {
		v := query.RateType.String()
		rateType = &v
	}

	return target, source, rateType
}

// floatToNumeric converts the float value to postgres numeric
func floatToNumeric(value float64) pgtype.Numeric {
	// round to 8dp and store as integer with exponent -8
	i := int64(math.Round(value * math.Pow10(-numericExp)))

	return pgtype.Numeric{
		Int:   big.NewInt(i),
		Exp:   numericExp,
		Valid: true,
	}
}

// numericToFloat converts the postgres value to float
func numericToFloat(value pgtype.Numeric) float64 {
	if !value.Valid || value.Int == nil {
		return 0
	}

	f, err := value.Float64Value()
	if err != nil {
		return 0
	}

	return f.Float64
}

// timeToTimestamptz converts the time value to postgres timestamp
func timeToTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}

// timestamptzToTime converts the postgres timestamp value to time
func timestamptzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}

	return ts.Time.UTC()
}
