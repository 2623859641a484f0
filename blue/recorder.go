package blue

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jonah3272/boliviablue/storage"
	"github.com/jonah3272/boliviablue/storage/types"
)

const recordTimeout = 10 * time.Second

// Recorder persists the refreshed snapshots as history rows.
// Its Record method is meant to be used as a polling callback
type Recorder struct {
	store  storage.Storage
	logger *slog.Logger

	last time.Time // latest recorded snapshot timestamp
	mux  sync.Mutex
}

// NewRecorder creates a new snapshot recorder
func NewRecorder(store storage.Storage, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Recorder{
		store:  store,
		logger: logger,
	}
}

// Record saves the snapshot legs as BUY / SELL rows.
// Stale and already recorded snapshots are skipped
func (r *Recorder) Record(ctx context.Context, snapshot *types.RateSnapshot) {
	if snapshot == nil || snapshot.Stale {
		return
	}

	r.mux.Lock()
	defer r.mux.Unlock()

	if !snapshot.Timestamp.After(r.last) {
		return // already recorded
	}

	ctx, cancelFn := context.WithTimeout(ctx, recordTimeout)
	defer cancelFn()

	var (
		fetchedAt = time.Now().UTC()
		failed    bool
	)

	for _, rate := range snapshotRates(snapshot, fetchedAt) {
		if err := r.store.SaveExchangeRate(ctx, rate); err != nil {
			failed = true

			r.logger.Error(
				"unable to save exchange rate",
				"base", rate.Base,
				"target", rate.Target,
				"source", rate.Source,
				"rate_type", rate.RateType,
				"err", err,
			)

			continue
		}

		r.logger.Debug(
			"saved exchange rate",
			"base", rate.Base,
			"target", rate.Target,
			"source", rate.Source,
			"rate", rate.Rate,
			"rate_type", rate.RateType,
			"as_of", rate.AsOf,
		)
	}

	if !failed {
		r.last = snapshot.Timestamp
	}
}

// snapshotRates expands the snapshot into exchange rate rows.
// Undetermined legs are left out
func snapshotRates(snapshot *types.RateSnapshot, fetchedAt time.Time) []*types.ExchangeRate {
	var (
		asOf  = snapshot.Timestamp.UTC()
		rates = make([]*types.ExchangeRate, 0, 8)
	)

	add := func(base types.Currency, source types.Source, buy, sell *float64) {
		if buy == nil || sell == nil {
			return
		}

		for _, leg := range []struct {
			rateType types.RateType
			value    float64
		}{
			{types.RateTypeBUY, *buy},
			{types.RateTypeSELL, *sell},
		} {
			rates = append(rates, &types.ExchangeRate{
				AsOf:      asOf,
				FetchedAt: fetchedAt,
				Base:      base,
				Target:    types.CurrencyBOB,
				RateType:  leg.rateType,
				Source:    source,
				Rate:      leg.value,
			})
		}
	}

	add(types.CurrencyUSD, types.SourceBinanceP2P, types.Float(snapshot.BuyBobPerUSD), types.Float(snapshot.SellBobPerUSD))
	add(types.CurrencyEUR, types.SourceBinanceP2P, snapshot.BuyBobPerEUR, snapshot.SellBobPerEUR)
	add(types.CurrencyBRL, types.SourceBinanceP2P, snapshot.BuyBobPerBRL, snapshot.SellBobPerBRL)
	add(types.CurrencyUSD, types.SourceBCB, snapshot.OfficialBuy, snapshot.OfficialSell)

	return rates
}
