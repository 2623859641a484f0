package crossrate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonah3272/boliviablue/provider/currencies"
	"github.com/jonah3272/boliviablue/storage/types"
)

func baseSnapshot() *types.RateSnapshot {
	return &types.RateSnapshot{
		Timestamp:     time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC),
		Currency:      currencies.USD,
		Buy:           types.Float(9.50),
		Sell:          types.Float(9.70),
		BuyBobPerUSD:  9.50,
		SellBobPerUSD: 9.70,
	}
}

func TestDerive(t *testing.T) {
	t.Parallel()

	t.Run("all references present", func(t *testing.T) {
		t.Parallel()

		var (
			snap = baseSnapshot()
			refs = &types.ReferenceRates{
				PerUSD: map[types.Currency]float64{
					currencies.EUR: 0.92,
					currencies.BRL: 5.10,
				},
			}
		)

		out, err := Derive(snap, refs)
		require.NoError(t, err)

		require.NotNil(t, out.BuyBobPerEUR)
		require.NotNil(t, out.SellBobPerEUR)
		require.NotNil(t, out.BuyBobPerBRL)
		require.NotNil(t, out.SellBobPerBRL)

		// no internal rounding
		assert.Equal(t, 9.50/0.92, *out.BuyBobPerEUR)
		assert.Equal(t, 9.70/0.92, *out.SellBobPerEUR)
		assert.Equal(t, 9.50/5.10, *out.BuyBobPerBRL)
		assert.Equal(t, 9.70/5.10, *out.SellBobPerBRL)

		assert.GreaterOrEqual(t, *out.SellBobPerEUR, *out.BuyBobPerEUR)
		assert.GreaterOrEqual(t, *out.SellBobPerBRL, *out.BuyBobPerBRL)

		// the input snapshot is left untouched
		assert.Nil(t, snap.BuyBobPerEUR)
		assert.Nil(t, snap.BuyBobPerBRL)
	})

	t.Run("missing reference", func(t *testing.T) {
		t.Parallel()

		refs := &types.ReferenceRates{
			PerUSD: map[types.Currency]float64{
				currencies.EUR: 0.92,
			},
		}

		out, err := Derive(baseSnapshot(), refs)

		require.ErrorIs(t, err, ErrCrossRateUnavailable)
		require.NotNil(t, out)

		assert.NotNil(t, out.BuyBobPerEUR)
		assert.Nil(t, out.BuyBobPerBRL)
		assert.Nil(t, out.SellBobPerBRL)

		// USD legs are unaffected
		assert.Equal(t, 9.50, out.BuyBobPerUSD)
		assert.False(t, out.Stale)
	})

	t.Run("no reference rates", func(t *testing.T) {
		t.Parallel()

		out, err := Derive(baseSnapshot(), nil)

		require.ErrorIs(t, err, ErrCrossRateUnavailable)
		require.NotNil(t, out)

		assert.Nil(t, out.BuyBobPerEUR)
		assert.Nil(t, out.SellBobPerEUR)
		assert.Nil(t, out.BuyBobPerBRL)
		assert.Nil(t, out.SellBobPerBRL)
	})

	t.Run("invalid references", func(t *testing.T) {
		t.Parallel()

		refs := &types.ReferenceRates{
			PerUSD: map[types.Currency]float64{
				currencies.EUR: 0,
				currencies.BRL: math.NaN(),
			},
		}

		out, err := Derive(baseSnapshot(), refs)

		require.ErrorIs(t, err, ErrCrossRateUnavailable)

		assert.Nil(t, out.BuyBobPerEUR)
		assert.Nil(t, out.BuyBobPerBRL)
	})

	t.Run("headline follows the quote currency", func(t *testing.T) {
		t.Parallel()

		snap := baseSnapshot()
		snap.Currency = currencies.EUR

		refs := &types.ReferenceRates{
			PerUSD: map[types.Currency]float64{
				currencies.EUR: 0.92,
				currencies.BRL: 5.10,
			},
		}

		out, err := Derive(snap, refs)
		require.NoError(t, err)

		require.NotNil(t, out.Buy)
		assert.Equal(t, *out.BuyBobPerEUR, *out.Buy)
	})

	t.Run("nil snapshot", func(t *testing.T) {
		t.Parallel()

		_, err := Derive(nil, nil)

		assert.ErrorIs(t, err, errMissingSnapshot)
	})
}
