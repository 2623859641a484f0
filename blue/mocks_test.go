package blue

import (
	"context"

	"github.com/jonah3272/boliviablue/storage/types"
)

type (
	offersDelegate         func(context.Context) ([]types.Offer, error)
	referenceRatesDelegate func(context.Context) (*types.ReferenceRates, error)
	officialRateDelegate   func(context.Context) (*types.OfficialRate, error)
	historyDelegate        func(context.Context, types.Currency, types.Range) (*types.HistoricalSeries, error)
)

type mockRateSource struct {
	offersFn         offersDelegate
	referenceRatesFn referenceRatesDelegate
	historyFn        historyDelegate
}

func (m *mockRateSource) Offers(ctx context.Context) ([]types.Offer, error) {
	if m.offersFn != nil {
		return m.offersFn(ctx)
	}

	return nil, nil
}

func (m *mockRateSource) ReferenceRates(ctx context.Context) (*types.ReferenceRates, error) {
	if m.referenceRatesFn != nil {
		return m.referenceRatesFn(ctx)
	}

	return nil, nil
}

func (m *mockRateSource) History(
	ctx context.Context,
	currency types.Currency,
	rng types.Range,
) (*types.HistoricalSeries, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, currency, rng)
	}

	return nil, nil
}

type mockOfferSource struct {
	offersFn offersDelegate
}

func (m *mockOfferSource) Offers(ctx context.Context) ([]types.Offer, error) {
	if m.offersFn != nil {
		return m.offersFn(ctx)
	}

	return nil, nil
}

type mockReferenceSource struct {
	referenceRatesFn referenceRatesDelegate
}

func (m *mockReferenceSource) ReferenceRates(ctx context.Context) (*types.ReferenceRates, error) {
	if m.referenceRatesFn != nil {
		return m.referenceRatesFn(ctx)
	}

	return nil, nil
}

type mockOfficialSource struct {
	officialRateFn officialRateDelegate
}

func (m *mockOfficialSource) OfficialRate(ctx context.Context) (*types.OfficialRate, error) {
	if m.officialRateFn != nil {
		return m.officialRateFn(ctx)
	}

	return nil, nil
}
