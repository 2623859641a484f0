// Package aggregate reduces P2P offers into a representative blue rate
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/jonah3272/boliviablue/provider/currencies"
	"github.com/jonah3272/boliviablue/storage/types"
)

var (
	// ErrInsufficientData is returned when a market side has no offers.
	// Callers should keep serving the previous snapshot
	ErrInsufficientData = errors.New("insufficient offer data")

	// ErrMixedPairs is returned when an offer is not USDT/BOB
	ErrMixedPairs = errors.New("offers are not all USDT/BOB")

	// ErrInvalidPrice is returned when an offer price is not a positive finite number
	ErrInvalidPrice = errors.New("invalid offer price")

	// ErrInvertedSpread is returned when the buy median is above the sell median
	ErrInvertedSpread = errors.New("buy median above sell median")
)

// Median returns the median of the values, without modifying them.
// The median of an empty slice is 0
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return sorted[n/2]
}

// Aggregate partitions the offers by side and returns a snapshot
// holding the median buy and sell BOB per USD rates
func Aggregate(offers []types.Offer, at time.Time) (*types.RateSnapshot, error) {
	var buys, sells []float64

	for _, offer := range offers {
		if offer.Asset != currencies.USDT || offer.Fiat != currencies.BOB {
			return nil, fmt.Errorf("%w: got %s/%s", ErrMixedPairs, offer.Asset, offer.Fiat)
		}

		if offer.Price <= 0 || math.IsNaN(offer.Price) || math.IsInf(offer.Price, 0) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, offer.Price)
		}

		switch offer.Side {
		case types.SideBuy:
			buys = append(buys, offer.Price)
		case types.SideSell:
			sells = append(sells, offer.Price)
		default:
			return nil, fmt.Errorf("unknown offer side %q", offer.Side)
		}
	}

	if len(buys) == 0 {
		return nil, fmt.Errorf("%w: no %s offers", ErrInsufficientData, types.SideBuy)
	}

	if len(sells) == 0 {
		return nil, fmt.Errorf("%w: no %s offers", ErrInsufficientData, types.SideSell)
	}

	var (
		buy  = Median(buys)
		sell = Median(sells)
	)

	if buy > sell {
		return nil, fmt.Errorf("%w: buy %f, sell %f", ErrInvertedSpread, buy, sell)
	}

	return &types.RateSnapshot{
		Timestamp:     at.UTC(),
		Currency:      currencies.USD,
		Buy:           types.Float(buy),
		Sell:          types.Float(sell),
		BuyBobPerUSD:  buy,
		SellBobPerUSD: sell,
	}, nil
}
