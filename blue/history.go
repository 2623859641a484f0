package blue

import (
	"slices"
	"time"

	"github.com/jonah3272/boliviablue/storage/types"
)

// pairPoints joins BUY and SELL rows sharing an as of time into points.
// Rows with no counterpart are dropped. The result is ascending
func pairPoints(rates []*types.ExchangeRate) []types.HistoricalPoint {
	type pair struct {
		buy, sell       float64
		hasBuy, hasSell bool
	}

	var (
		pairs = make(map[int64]*pair)
		order = make([]time.Time, 0, len(rates)/2)
	)

	for _, r := range rates {
		key := r.AsOf.UnixNano()

		p, ok := pairs[key]
		if !ok {
			p = &pair{}
			pairs[key] = p

			order = append(order, r.AsOf.UTC())
		}

		switch r.RateType {
		case types.RateTypeBUY:
			p.buy, p.hasBuy = r.Rate, true
		case types.RateTypeSELL:
			p.sell, p.hasSell = r.Rate, true
		}
	}

	slices.SortFunc(order, func(a, b time.Time) int {
		return a.Compare(b)
	})

	points := make([]types.HistoricalPoint, 0, len(order))

	for _, ts := range order {
		p := pairs[ts.UnixNano()]
		if !p.hasBuy || !p.hasSell {
			continue
		}

		points = append(points, types.HistoricalPoint{
			Timestamp: ts,
			Buy:       p.buy,
			Sell:      p.sell,
		})
	}

	return points
}

// downsample averages ascending points into buckets of the given size.
// Each bucket is stamped with its start time. A zero bucket keeps the points raw
func downsample(points []types.HistoricalPoint, bucket time.Duration) []types.HistoricalPoint {
	if bucket <= 0 || len(points) == 0 {
		return points
	}

	var (
		out = make([]types.HistoricalPoint, 0, len(points))

		start     time.Time
		buy, sell float64
		n         int
	)

	flush := func() {
		if n == 0 {
			return
		}

		out = append(out, types.HistoricalPoint{
			Timestamp: start,
			Buy:       buy / float64(n),
			Sell:      sell / float64(n),
		})
	}

	for _, p := range points {
		bucketStart := p.Timestamp.Truncate(bucket)

		if n > 0 && !bucketStart.Equal(start) {
			flush()

			buy, sell, n = 0, 0, 0
		}

		start = bucketStart
		buy += p.Buy
		sell += p.Sell
		n++
	}

	flush()

	return out
}
