package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonah3272/boliviablue/storage/types"
)

var testDate = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(srv.URL+"/", WithRetries(2, time.Millisecond))
}

func TestClient_BlueRate(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/blue-rate", r.URL.Path)
			assert.Equal(t, "EUR", r.URL.Query().Get("currency"))

			_ = json.NewEncoder(w).Encode(&types.RateSnapshot{
				Timestamp:     testDate,
				Currency:      types.CurrencyEUR,
				Buy:           types.Float(10.3),
				Sell:          types.Float(10.6),
				BuyBobPerUSD:  9.5,
				SellBobPerUSD: 9.8,
				BuyBobPerEUR:  types.Float(10.3),
				SellBobPerEUR: types.Float(10.6),
			})
		})

		snap, err := c.BlueRate(context.Background(), types.CurrencyEUR)
		require.NoError(t, err)

		assert.Equal(t, testDate, snap.Timestamp.UTC())
		assert.Equal(t, types.CurrencyEUR, snap.Currency)
		require.NotNil(t, snap.Buy)
		assert.Equal(t, 10.3, *snap.Buy)
		assert.Nil(t, snap.BuyBobPerBRL)
		assert.False(t, snap.Stale)
	})

	t.Run("no data yet", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)

			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"no data yet"}`))
		})

		_, err := c.BlueRate(context.Background(), types.CurrencyUSD)
		assert.ErrorIs(t, err, ErrNoData)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("transient failures are retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)

				return
			}

			_ = json.NewEncoder(w).Encode(&types.RateSnapshot{
				Timestamp:     testDate,
				BuyBobPerUSD:  9.5,
				SellBobPerUSD: 9.8,
			})
		})

		snap, err := c.BlueRate(context.Background(), types.CurrencyUSD)
		require.NoError(t, err)

		assert.Equal(t, 9.5, snap.BuyBobPerUSD)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("retries are bounded", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)

			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := c.BlueRate(context.Background(), types.CurrencyUSD)
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)

			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"unsupported currency"}`))
		})

		_, err := c.BlueRate(context.Background(), types.CurrencyUSD)
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("malformed response", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"timestamp":`))
		})

		_, err := c.Fetch(context.Background(), types.CurrencyUSD)
		assert.Error(t, err)
	})
}

func TestClient_BlueHistory(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/blue-history", r.URL.Path)
		assert.Equal(t, "BRL", r.URL.Query().Get("currency"))
		assert.Equal(t, "3M", r.URL.Query().Get("range"))

		_, _ = w.Write([]byte(`{
			"range": "3M",
			"currency": "BRL",
			"count": 2,
			"history": [
				{"timestamp": "2026-10-18T00:00:00Z", "buy": 1.86, "sell": 1.92},
				{"timestamp": "2026-10-18T12:00:00Z", "buy": 1.87, "sell": 1.93}
			]
		}`))
	})

	series, err := c.BlueHistory(context.Background(), types.CurrencyBRL, types.Range3M)
	require.NoError(t, err)

	assert.Equal(t, types.Range3M, series.Range)
	assert.Equal(t, types.CurrencyBRL, series.Currency)
	assert.Equal(t, 2, series.Count)
	require.Len(t, series.Points, 2)

	assert.Equal(t, time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC), series.Points[1].Timestamp)
	assert.Equal(t, 1.93, series.Points[1].Sell)
}
