package blue

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonah3272/boliviablue/aggregate"
	"github.com/jonah3272/boliviablue/storage/types"
)

var testNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func testOffers() []types.Offer {
	offer := func(side types.Side, price float64) types.Offer {
		return types.Offer{
			Asset: types.CurrencyUSDT,
			Fiat:  types.CurrencyBOB,
			Side:  side,
			Price: price,
		}
	}

	return []types.Offer{
		offer(types.SideBuy, 9.40),
		offer(types.SideBuy, 9.50),
		offer(types.SideBuy, 9.60),
		offer(types.SideSell, 9.70),
		offer(types.SideSell, 9.80),
		offer(types.SideSell, 9.90),
	}
}

func testReferences() *types.ReferenceRates {
	return &types.ReferenceRates{
		AsOf: testNow,
		PerUSD: map[types.Currency]float64{
			types.CurrencyEUR: 0.92,
			types.CurrencyBRL: 5.10,
		},
	}
}

func newTestPipeline(source RateSource, opts ...PipelineOption) *Pipeline {
	p := NewPipeline(source, opts...)
	p.now = func() time.Time {
		return testNow
	}

	return p
}

func TestPipeline_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("unsupported currency", func(t *testing.T) {
		t.Parallel()

		p := newTestPipeline(&mockRateSource{})

		_, err := p.Fetch(context.Background(), types.CurrencyBOB)
		assert.ErrorIs(t, err, errUnsupportedCurrency)
	})

	t.Run("offer transport failure", func(t *testing.T) {
		t.Parallel()

		fetchErr := errors.New("connection reset")

		p := newTestPipeline(&mockRateSource{
			offersFn: func(_ context.Context) ([]types.Offer, error) {
				return nil, fetchErr
			},
		})

		_, err := p.Fetch(context.Background(), types.CurrencyUSD)
		assert.ErrorIs(t, err, fetchErr)
	})

	t.Run("insufficient offers", func(t *testing.T) {
		t.Parallel()

		p := newTestPipeline(&mockRateSource{
			offersFn: func(_ context.Context) ([]types.Offer, error) {
				return testOffers()[:3], nil // buy side only
			},
		})

		_, err := p.Fetch(context.Background(), types.CurrencyUSD)
		assert.ErrorIs(t, err, aggregate.ErrInsufficientData)
	})

	t.Run("non-finite offer price", func(t *testing.T) {
		t.Parallel()

		p := newTestPipeline(&mockRateSource{
			offersFn: func(_ context.Context) ([]types.Offer, error) {
				offers := testOffers()
				offers[0].Price = math.NaN()

				return offers, nil
			},
		})

		snap, err := p.Fetch(context.Background(), types.CurrencyUSD)
		assert.ErrorIs(t, err, aggregate.ErrInvalidPrice)
		assert.Nil(t, snap)
	})

	t.Run("full snapshot", func(t *testing.T) {
		t.Parallel()

		p := newTestPipeline(&mockRateSource{
			offersFn: func(_ context.Context) ([]types.Offer, error) {
				return testOffers(), nil
			},
			referenceRatesFn: func(_ context.Context) (*types.ReferenceRates, error) {
				return testReferences(), nil
			},
		}, WithOfficialSource(&mockOfficialSource{
			officialRateFn: func(_ context.Context) (*types.OfficialRate, error) {
				return &types.OfficialRate{
					AsOf: testNow,
					Buy:  6.86,
					Sell: 6.96,
				}, nil
			},
		}))

		snap, err := p.Fetch(context.Background(), types.CurrencyUSD)
		require.NoError(t, err)

		assert.Equal(t, testNow, snap.Timestamp)
		assert.Equal(t, types.CurrencyUSD, snap.Currency)
		assert.Equal(t, 9.50, snap.BuyBobPerUSD)
		assert.Equal(t, 9.80, snap.SellBobPerUSD)
		assert.False(t, snap.Stale)

		require.NotNil(t, snap.Buy)
		require.NotNil(t, snap.Sell)
		assert.Equal(t, 9.50, *snap.Buy)
		assert.Equal(t, 9.80, *snap.Sell)

		require.NotNil(t, snap.BuyBobPerEUR)
		require.NotNil(t, snap.SellBobPerBRL)
		assert.InDelta(t, 9.50/0.92, *snap.BuyBobPerEUR, 1e-9)
		assert.InDelta(t, 9.80/5.10, *snap.SellBobPerBRL, 1e-9)

		require.NotNil(t, snap.OfficialBuy)
		require.NotNil(t, snap.OfficialSell)
		assert.Equal(t, 6.86, *snap.OfficialBuy)
		assert.Equal(t, 6.96, *snap.OfficialSell)
	})

	t.Run("headline follows the currency", func(t *testing.T) {
		t.Parallel()

		p := newTestPipeline(&mockRateSource{
			offersFn: func(_ context.Context) ([]types.Offer, error) {
				return testOffers(), nil
			},
			referenceRatesFn: func(_ context.Context) (*types.ReferenceRates, error) {
				return testReferences(), nil
			},
		})

		snap, err := p.Fetch(context.Background(), types.CurrencyEUR)
		require.NoError(t, err)

		assert.Equal(t, types.CurrencyEUR, snap.Currency)

		require.NotNil(t, snap.Buy)
		require.NotNil(t, snap.Sell)
		assert.Equal(t, *snap.BuyBobPerEUR, *snap.Buy)
		assert.Equal(t, *snap.SellBobPerEUR, *snap.Sell)

		// the USD legs are always present
		assert.Equal(t, 9.50, snap.BuyBobPerUSD)
	})

	t.Run("reference failure degrades", func(t *testing.T) {
		t.Parallel()

		p := newTestPipeline(&mockRateSource{
			offersFn: func(_ context.Context) ([]types.Offer, error) {
				return testOffers(), nil
			},
			referenceRatesFn: func(_ context.Context) (*types.ReferenceRates, error) {
				return nil, errors.New("rate limited")
			},
		})

		snap, err := p.Fetch(context.Background(), types.CurrencyBRL)
		require.NoError(t, err)

		assert.Equal(t, 9.50, snap.BuyBobPerUSD)
		assert.Nil(t, snap.BuyBobPerBRL)
		assert.Nil(t, snap.SellBobPerBRL)

		// undeterminable headline pair
		assert.Nil(t, snap.Buy)
		assert.Nil(t, snap.Sell)
	})

	t.Run("official failure degrades", func(t *testing.T) {
		t.Parallel()

		p := newTestPipeline(&mockRateSource{
			offersFn: func(_ context.Context) ([]types.Offer, error) {
				return testOffers(), nil
			},
			referenceRatesFn: func(_ context.Context) (*types.ReferenceRates, error) {
				return testReferences(), nil
			},
		}, WithOfficialSource(&mockOfficialSource{
			officialRateFn: func(_ context.Context) (*types.OfficialRate, error) {
				return nil, errors.New("page changed")
			},
		}))

		snap, err := p.Fetch(context.Background(), types.CurrencyUSD)
		require.NoError(t, err)

		assert.Nil(t, snap.OfficialBuy)
		assert.Nil(t, snap.OfficialSell)
		assert.NotNil(t, snap.BuyBobPerEUR)
	})

	t.Run("concurrent currencies share a derivation", func(t *testing.T) {
		t.Parallel()

		var (
			calls   atomic.Int32
			release = make(chan struct{})
		)

		p := newTestPipeline(&mockRateSource{
			offersFn: func(_ context.Context) ([]types.Offer, error) {
				calls.Add(1)

				<-release

				return testOffers(), nil
			},
			referenceRatesFn: func(_ context.Context) (*types.ReferenceRates, error) {
				return testReferences(), nil
			},
		})

		var (
			wg      sync.WaitGroup
			results = make([]*types.RateSnapshot, len(types.QuoteCurrencies))
		)

		for i, c := range types.QuoteCurrencies {
			wg.Add(1)

			go func() {
				defer wg.Done()

				snap, err := p.Fetch(context.Background(), c)
				assert.NoError(t, err)

				results[i] = snap
			}()
		}

		// let all callers join the flight
		time.Sleep(100 * time.Millisecond)
		close(release)

		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())

		for i, c := range types.QuoteCurrencies {
			require.NotNil(t, results[i])
			assert.Equal(t, c, results[i].Currency)
		}
	})

	t.Run("caller cancellation", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		defer close(release)

		p := newTestPipeline(&mockRateSource{
			offersFn: func(_ context.Context) ([]types.Offer, error) {
				<-release

				return testOffers(), nil
			},
		})

		ctx, cancelFn := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancelFn()

		_, err := p.Fetch(ctx, types.CurrencyUSD)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
