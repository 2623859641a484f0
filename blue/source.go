package blue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonah3272/boliviablue/storage"
	"github.com/jonah3272/boliviablue/storage/types"
)

// ErrTransport wraps network and decoding failures of the upstream inputs
var ErrTransport = errors.New("transport error")

var errUnsupportedCurrency = errors.New("unsupported currency")

// RateSource provides the raw inputs of the blue rate
type RateSource interface {
	// Offers returns the current public USDT/BOB P2P offers
	Offers(ctx context.Context) ([]types.Offer, error)

	// ReferenceRates returns the published USD spot rates
	ReferenceRates(ctx context.Context) (*types.ReferenceRates, error)

	// History returns the recorded series of the currency for the range
	History(ctx context.Context, currency types.Currency, rng types.Range) (*types.HistoricalSeries, error)
}

// OfferSource provides public P2P offers
type OfferSource interface {
	Offers(ctx context.Context) ([]types.Offer, error)
}

// ReferenceSource provides published USD spot rates
type ReferenceSource interface {
	ReferenceRates(ctx context.Context) (*types.ReferenceRates, error)
}

// OfficialSource provides the official BOB/USD rate
type OfficialSource interface {
	OfficialRate(ctx context.Context) (*types.OfficialRate, error)
}

// Source is the RateSource backed by the live providers,
// and the recorded history
type Source struct {
	offers OfferSource
	refs   ReferenceSource
	store  storage.Storage
	logger *slog.Logger

	now func() time.Time
}

// NewSource creates a new rate source
func NewSource(
	offers OfferSource,
	refs ReferenceSource,
	store storage.Storage,
	opts ...SourceOption,
) *Source {
	s := &Source{
		offers: offers,
		refs:   refs,
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Source) Offers(ctx context.Context) ([]types.Offer, error) {
	offers, err := s.offers.Offers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	return offers, nil
}

func (s *Source) ReferenceRates(ctx context.Context) (*types.ReferenceRates, error) {
	refs, err := s.refs.ReferenceRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	return refs, nil
}

// History returns the recorded buy / sell series of the currency,
// downsampled for the range
func (s *Source) History(
	ctx context.Context,
	currency types.Currency,
	rng types.Range,
) (*types.HistoricalSeries, error) {
	if !currency.IsQuote() {
		return nil, fmt.Errorf("%w: %q", errUnsupportedCurrency, currency)
	}

	var (
		to   = s.now().UTC()
		from time.Time // unbounded
	)

	if window := rng.Window(); window > 0 {
		from = to.Add(-window)
	}

	var (
		target = types.CurrencyBOB
		source = types.SourceBinanceP2P
	)

	rates, err := s.store.RatesInRange(
		ctx,
		&types.RateQuery{
			Base:   currency,
			Target: &target,
			Source: &source,
		},
		from,
		to,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch recorded rates, %w", err)
	}

	points := downsample(pairPoints(rates), rng.Bucket())

	s.logger.Debug(
		"loaded history",
		"currency", currency,
		"range", rng,
		"rows", len(rates),
		"points", len(points),
	)

	return &types.HistoricalSeries{
		Range:    rng,
		Currency: currency,
		Points:   points,
		Count:    len(points),
	}, nil
}
