// Package stats derives summary statistics from historical rate series
package stats

import (
	"math"
	"slices"
	"time"

	"github.com/jonah3272/boliviablue/storage/types"
)

// Compute derives the statistics of the series midpoints.
// An empty series yields the empty state (zero sample count, no timestamps)
func Compute(series *types.HistoricalSeries) types.Stats {
	if series == nil {
		return types.Stats{}
	}

	result := types.Stats{
		Range:    series.Range,
		Currency: series.Currency,
	}

	points := sortedPoints(series.Points)
	if len(points) == 0 {
		return result
	}

	var (
		sum    float64
		maxIdx int
		minIdx int

		mids = make([]float64, len(points))
	)

	for i, p := range points {
		mid := p.Midpoint()

		mids[i] = mid
		sum += mid

		// Strict comparisons, the first occurrence wins on ties
		if mid > mids[maxIdx] {
			maxIdx = i
		}

		if mid < mids[minIdx] {
			minIdx = i
		}
	}

	mean := sum / float64(len(mids))

	var variance float64
	for _, mid := range mids {
		variance += (mid - mean) * (mid - mean)
	}

	variance /= float64(len(mids))

	var (
		maxAt = points[maxIdx].Timestamp
		minAt = points[minIdx].Timestamp

		first = mids[0]
		last  = mids[len(mids)-1]
	)

	result.Average = mean
	result.Max = mids[maxIdx]
	result.Min = mids[minIdx]
	result.MaxTimestamp = &maxAt
	result.MinTimestamp = &minAt
	result.Volatility = math.Sqrt(variance)
	result.Change = last - first
	result.SampleCount = len(mids)

	if first != 0 {
		result.ChangePercent = (last - first) / first * 100
	}

	return result
}

// sortedPoints returns the points ordered by ascending timestamp.
// The input slice is not modified
func sortedPoints(points []types.HistoricalPoint) []types.HistoricalPoint {
	sorted := slices.Clone(points)

	slices.SortStableFunc(sorted, func(a, b types.HistoricalPoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	return sorted
}

// FileName returns the CSV export file name for the range and date
func FileName(rng types.Range, date time.Time) string {
	return "dolar-blue-bolivia-" + rng.String() + "-" + date.UTC().Format(time.DateOnly) + ".csv"
}
