package stats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonah3272/boliviablue/storage/types"
)

var ErrInvalidCSV = errors.New("invalid csv")

var csvHeader = []string{"Date", "Buy", "Sell", "Average"}

const (
	valuePlaces   = 4
	averagePlaces = 2
)

// WriteCSV writes the series as CSV, one row per point in ascending time order.
// Average is the midpoint, rounded to 2 decimals
func WriteCSV(w io.Writer, series *types.HistoricalSeries) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("unable to write csv header, %w", err)
	}

	var points []types.HistoricalPoint
	if series != nil {
		points = sortedPoints(series.Points)
	}

	for _, p := range points {
		row := []string{
			p.Timestamp.UTC().Format(time.RFC3339),
			decimal.NewFromFloat(p.Buy).StringFixed(valuePlaces),
			decimal.NewFromFloat(p.Sell).StringFixed(valuePlaces),
			decimal.NewFromFloat(p.Midpoint()).StringFixed(averagePlaces),
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("unable to write csv row, %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("unable to flush csv, %w", err)
	}

	return nil
}

// ParseCSV parses points written by WriteCSV
func ParseCSV(r io.Reader) ([]types.HistoricalPoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read header, %w", ErrInvalidCSV, err)
	}

	for i, column := range csvHeader {
		if header[i] != column {
			return nil, fmt.Errorf("%w: unexpected column %q", ErrInvalidCSV, header[i])
		}
	}

	points := make([]types.HistoricalPoint, 0)

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
		}

		p, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d, %w", ErrInvalidCSV, line, err)
		}

		points = append(points, p)
	}

	return points, nil
}

func parseRecord(record []string) (types.HistoricalPoint, error) {
	ts, err := time.Parse(time.RFC3339, record[0])
	if err != nil {
		return types.HistoricalPoint{}, fmt.Errorf("unable to parse date, %w", err)
	}

	buy, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return types.HistoricalPoint{}, fmt.Errorf("unable to parse buy, %w", err)
	}

	sell, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return types.HistoricalPoint{}, fmt.Errorf("unable to parse sell, %w", err)
	}

	return types.HistoricalPoint{
		Timestamp: ts.UTC(),
		Buy:       buy,
		Sell:      sell,
	}, nil
}
