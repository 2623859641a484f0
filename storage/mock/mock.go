package mock

import (
	"context"
	"time"

	"github.com/jonah3272/boliviablue/storage/types"
)

type (
	SaveExchangeRateDelegate func(context.Context, *types.ExchangeRate) error
	RateAsOfDelegate         func(context.Context, *types.RateQuery, time.Time) (*types.Page[*types.ExchangeRate], error)
	RatesInRangeDelegate     func(context.Context, *types.RateQuery, time.Time, time.Time) ([]*types.ExchangeRate, error)
	ListSourcesDelegate      func(context.Context) ([]types.Source, error)
	ListCurrenciesDelegate   func(context.Context) ([]types.Currency, error)
)

type Storage struct {
	SaveExchangeRateFn SaveExchangeRateDelegate
	RateAsOfFn         RateAsOfDelegate
	RatesInRangeFn     RatesInRangeDelegate
	ListSourcesFn      ListSourcesDelegate
	ListCurrenciesFn   ListCurrenciesDelegate
}

func (m *Storage) SaveExchangeRate(ctx context.Context, rate *types.ExchangeRate) error {
	if m.SaveExchangeRateFn != nil {
		return m.SaveExchangeRateFn(ctx, rate)
	}

	return nil
}

func (m *Storage) RateAsOf(
	ctx context.Context,
	query *types.RateQuery,
	at time.Time,
) (*types.Page[*types.ExchangeRate], error) {
	if m.RateAsOfFn != nil {
		return m.RateAsOfFn(ctx, query, at)
	}

	return nil, nil
}

func (m *Storage) RatesInRange(
	ctx context.Context,
	query *types.RateQuery,
	from, to time.Time,
) ([]*types.ExchangeRate, error) {
	if m.RatesInRangeFn != nil {
		return m.RatesInRangeFn(ctx, query, from, to)
	}

	return nil, nil
}

func (m *Storage) ListSources(ctx context.Context) ([]types.Source, error) {
	if m.ListSourcesFn != nil {
		return m.ListSourcesFn(ctx)
	}

	return nil, nil
}

func (m *Storage) ListCurrencies(ctx context.Context) ([]types.Currency, error) {
	if m.ListCurrenciesFn != nil {
		return m.ListCurrenciesFn(ctx)
	}

	return nil, nil
}
