package blue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jonah3272/boliviablue/aggregate"
	"github.com/jonah3272/boliviablue/crossrate"
	"github.com/jonah3272/boliviablue/metrics"
	"github.com/jonah3272/boliviablue/storage/types"
)

const baseFlightKey = "base"

// Pipeline derives fresh blue rate snapshots from the rate source
type Pipeline struct {
	source   RateSource
	official OfficialSource
	logger   *slog.Logger
	metrics  *metrics.Metrics

	now func() time.Time

	// Concurrent fetches of different quote currencies share one derivation
	group singleflight.Group
}

// NewPipeline creates a new snapshot pipeline
func NewPipeline(source RateSource, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		source: source,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Fetch derives a fresh snapshot, with the headline pair
// set for the given quote currency.
// Aggregation and offer transport failures are returned as errors.
// Reference and official rate failures only leave their fields undetermined
func (p *Pipeline) Fetch(ctx context.Context, currency types.Currency) (*types.RateSnapshot, error) {
	if !currency.IsQuote() {
		return nil, fmt.Errorf("%w: %q", errUnsupportedCurrency, currency)
	}

	ch := p.group.DoChan(baseFlightKey, func() (any, error) {
		return p.derive(ctx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		base, _ := res.Val.(*types.RateSnapshot)

		return base.ForCurrency(currency), nil
	}
}

// derive runs a single full derivation of the base (USD) snapshot
func (p *Pipeline) derive(ctx context.Context) (*types.RateSnapshot, error) {
	offers, err := p.source.Offers(ctx)
	if err != nil {
		p.metrics.UpstreamError("offers")

		return nil, fmt.Errorf("unable to fetch offers, %w", err)
	}

	snapshot, err := aggregate.Aggregate(offers, p.now())
	if err != nil {
		return nil, fmt.Errorf("unable to aggregate offers, %w", err)
	}

	var (
		refs     *types.ReferenceRates
		official *types.OfficialRate

		g errgroup.Group
	)

	// The inputs are independent, and none of them fail the snapshot
	g.Go(func() error {
		r, err := p.source.ReferenceRates(ctx)
		if err != nil {
			p.metrics.UpstreamError("reference")

			p.logger.Warn(
				"unable to fetch reference rates",
				"err", err,
			)

			return nil
		}

		refs = r

		return nil
	})

	if p.official != nil {
		g.Go(func() error {
			o, err := p.official.OfficialRate(ctx)
			if err != nil {
				p.metrics.UpstreamError("official")

				p.logger.Warn(
					"unable to fetch official rate",
					"err", err,
				)

				return nil
			}

			official = o

			return nil
		})
	}

	_ = g.Wait()

	derived, err := crossrate.Derive(snapshot, refs)
	if err != nil {
		if !errors.Is(err, crossrate.ErrCrossRateUnavailable) {
			return nil, fmt.Errorf("unable to derive cross rates, %w", err)
		}

		p.logger.Warn(
			"cross rates undetermined",
			"err", err,
		)
	}

	if official != nil {
		derived.OfficialBuy = types.Float(official.Buy)
		derived.OfficialSell = types.Float(official.Sell)
	}

	p.logger.Info(
		"derived blue rate",
		"buy_bob_per_usd", derived.BuyBobPerUSD,
		"sell_bob_per_usd", derived.SellBobPerUSD,
		"offers", len(offers),
	)

	return derived, nil
}
