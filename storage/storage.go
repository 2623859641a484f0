package storage

import (
	"context"
	"time"

	"github.com/jonah3272/boliviablue/storage/types"
)

// Storage is an abstraction over recorded blue rate data
type Storage interface {
	// SaveExchangeRate saves the given exchange rate data point.
	// Saving the same (pair, source, type, as of) point again overwrites it
	SaveExchangeRate(context.Context, *types.ExchangeRate) error

	// RateAsOf fetches the latest rates as of the given time
	RateAsOf(context.Context, *types.RateQuery, time.Time) (*types.Page[*types.ExchangeRate], error)

	// RatesInRange fetches all rates within [from, to], ascending by as of time.
	// Pagination fields of the query are ignored
	RatesInRange(ctx context.Context, query *types.RateQuery, from, to time.Time) ([]*types.ExchangeRate, error)

	// ListSources lists all present sources for recorded rates
	ListSources(context.Context) ([]types.Source, error)

	// ListCurrencies lists all currencies present
	ListCurrencies(context.Context) ([]types.Currency, error)
}
