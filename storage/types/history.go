package types

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidRange = errors.New("invalid range (must be one of 1D, 1W, 1M, 3M, 1Y, ALL)")

// Range is a historical query window
type Range string

const (
	Range1D  Range = "1D"
	Range1W  Range = "1W"
	Range1M  Range = "1M"
	Range3M  Range = "3M"
	Range1Y  Range = "1Y"
	RangeAll Range = "ALL"
)

func (r Range) String() string {
	return string(r)
}

// ParseRange parses the range, case-insensitive
func ParseRange(v string) (Range, error) {
	r := Range(strings.ToUpper(strings.TrimSpace(v)))

	switch r {
	case Range1D, Range1W, Range1M, Range3M, Range1Y, RangeAll:
		return r, nil
	default:
		return "", ErrInvalidRange
	}
}

// Window returns how far back the range reaches.
// 0 means unbounded (ALL)
func (r Range) Window() time.Duration {
	const day = 24 * time.Hour

	switch r {
	case Range1D:
		return day
	case Range1W:
		return 7 * day
	case Range1M:
		return 30 * day
	case Range3M:
		return 90 * day
	case Range1Y:
		return 365 * day
	default:
		return 0
	}
}

// Bucket returns the downsampling granularity for the range.
// 0 means raw points
func (r Range) Bucket() time.Duration {
	switch r {
	case Range1D:
		return 0
	case Range1W:
		return time.Hour
	case Range1M:
		return 4 * time.Hour
	case Range3M:
		return 12 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// HistoricalPoint is a single BOB buy / sell observation
type HistoricalPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Buy       float64   `json:"buy"`
	Sell      float64   `json:"sell"`
}

// Midpoint returns the mean of the buy and sell values
func (p HistoricalPoint) Midpoint() float64 {
	return (p.Buy + p.Sell) / 2
}

// HistoricalSeries is an ascending, duplicate-free series of points.
// A series is never modified after it is returned
type HistoricalSeries struct {
	Range    Range             `json:"range"`
	Currency Currency          `json:"currency"`
	Points   []HistoricalPoint `json:"history"`
	Count    int               `json:"count"`
}

// Stats are the derived statistics of a historical series.
// Only SampleCount is meaningful when the series is empty
type Stats struct {
	MaxTimestamp  *time.Time `json:"max_timestamp"`
	MinTimestamp  *time.Time `json:"min_timestamp"`
	Range         Range      `json:"range,omitempty"`
	Currency      Currency   `json:"currency,omitempty"`
	Average       float64    `json:"average"`
	Max           float64    `json:"max"`
	Min           float64    `json:"min"`
	Volatility    float64    `json:"volatility"`
	Change        float64    `json:"change"`
	ChangePercent float64    `json:"change_percent"`
	SampleCount   int        `json:"sample_count"`
}

// Empty returns true if the stats carry no data
func (s Stats) Empty() bool {
	return s.SampleCount == 0
}
