package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	t.Run("nil metrics", func(t *testing.T) {
		t.Parallel()

		var m *Metrics

		assert.NotPanics(t, func() {
			m.CacheHit("USD")
			m.CacheMiss("USD")
			m.RefreshResult("USD", nil)
			m.Stale("USD")
			m.ObserveFetch("USD", 1)
			m.SetRate("USD", nil, nil, 0)
			m.Tick("USD")
			m.SubscriptionAdded()
			m.SubscriptionRemoved()
			m.UpstreamError("offers")
		})
	})

	t.Run("records values", func(t *testing.T) {
		t.Parallel()

		m := New(prometheus.NewRegistry())

		m.CacheHit("USD")
		m.CacheHit("USD")
		m.CacheMiss("EUR")
		m.RefreshResult("USD", errors.New("boom"))

		buy, sell := 9.5, 9.7
		m.SetRate("USD", &buy, &sell, 1700000000)

		assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("USD", "hit")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("EUR", "miss")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Refreshes.WithLabelValues("USD", "error")))
		assert.Equal(t, 9.7, testutil.ToFloat64(m.Rate.WithLabelValues("USD", "sell")))
		assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.LastSuccess.WithLabelValues("USD")))
	})
}
