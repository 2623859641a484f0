// Package crossrate derives non-USD blue rates from the BOB/USD blue rate
package crossrate

import (
	"errors"
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"

	"github.com/jonah3272/boliviablue/provider/currencies"
	"github.com/jonah3272/boliviablue/storage/types"
)

// ErrCrossRateUnavailable is returned (alongside a valid snapshot)
// when a reference rate is missing and the derived legs are left undetermined
var ErrCrossRateUnavailable = errors.New("cross rate unavailable")

var errMissingSnapshot = errors.New("missing base snapshot")

// Derive returns a new snapshot with the BOB per EUR and BOB per BRL legs set.
//
// Both legs are divided by the same spot reference (units per USD),
// so buy stays paired with buy and the spread stays non-negative.
// Legs with no usable reference are nil, and the returned error
// lists them. The returned snapshot is valid even when the error is not nil
func Derive(snap *types.RateSnapshot, refs *types.ReferenceRates) (*types.RateSnapshot, error) {
	if snap == nil {
		return nil, errMissingSnapshot
	}

	out := snap.Clone()

	var result *multierror.Error

	derive := func(c types.Currency) (*float64, *float64) {
		perUSD, err := referenceFor(refs, c)
		if err != nil {
			result = multierror.Append(result, err)

			return nil, nil
		}

		return types.Float(snap.BuyBobPerUSD / perUSD),
			types.Float(snap.SellBobPerUSD / perUSD)
	}

	out.BuyBobPerEUR, out.SellBobPerEUR = derive(currencies.EUR)
	out.BuyBobPerBRL, out.SellBobPerBRL = derive(currencies.BRL)

	// Keep the headline in sync with the recomputed legs
	if out.Currency != "" {
		out.Buy, out.Sell = out.Quote(out.Currency)
	}

	return out, result.ErrorOrNil()
}

// referenceFor returns the usable units-per-USD reference for the currency
func referenceFor(refs *types.ReferenceRates, c types.Currency) (float64, error) {
	if refs == nil {
		return 0, fmt.Errorf("%w: %s (no reference rates)", ErrCrossRateUnavailable, c)
	}

	v, ok := refs.PerUSD[c]
	if !ok {
		return 0, fmt.Errorf("%w: %s (missing)", ErrCrossRateUnavailable, c)
	}

	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s (invalid reference %f)", ErrCrossRateUnavailable, c, v)
	}

	return v, nil
}
