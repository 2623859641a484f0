package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonah3272/boliviablue/stats"
	"github.com/jonah3272/boliviablue/storage/types"
)

func testSeries() *types.HistoricalSeries {
	start := time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)

	return &types.HistoricalSeries{
		Range:    types.Range1W,
		Currency: types.CurrencyUSD,
		Points: []types.HistoricalPoint{
			{Timestamp: start, Buy: 8.40, Sell: 8.50},
			{Timestamp: start.Add(24 * time.Hour), Buy: 8.60, Sell: 8.70},
		},
		Count: 2,
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "export.csv")

	require.NoError(t, writeFile(path, testSeries()))

	f, err := os.Open(path)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = f.Close()
	})

	points, err := stats.ParseCSV(f)
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, 8.70, points[1].Sell)
}

func TestPrintStats(t *testing.T) {
	t.Parallel()

	t.Run("summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		printStats(&buf, stats.Compute(testSeries()))

		assert.Equal(
			t,
			"Average 8.55, max 8.65 (2026-10-18), min 8.45 (2026-10-17), "+
				"volatility 0.1000, change +0.20 (+2.37%)\n",
			buf.String(),
		)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		printStats(&buf, stats.Compute(&types.HistoricalSeries{}))

		assert.Equal(t, "No data for the range\n", buf.String())
	})
}
