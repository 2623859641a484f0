// Package metrics holds the prometheus collectors of the rate service
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "boliviablue"

// Metrics groups the service collectors.
// A nil *Metrics is valid and records nothing
type Metrics struct {
	CacheLookups   *prometheus.CounterVec
	Refreshes      *prometheus.CounterVec
	StaleServed    *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	Rate           *prometheus.GaugeVec
	LastSuccess    *prometheus.GaugeVec
	Ticks          *prometheus.CounterVec
	Subscriptions  prometheus.Gauge
	UpstreamErrors *prometheus.CounterVec
}

// New creates the collectors and registers them with the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Rate cache lookups by currency and result (hit, miss)",
			},
			[]string{"currency", "result"},
		),
		Refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_refreshes_total",
				Help:      "Rate cache upstream refreshes by currency and status (ok, error)",
			},
			[]string{"currency", "status"},
		),
		StaleServed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_stale_served_total",
				Help:      "Stale snapshots served after a failed refresh",
			},
			[]string{"currency"},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of upstream snapshot fetches",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"currency"},
		),
		Rate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rate_bob",
				Help:      "Latest blue rate in BOB per unit of the quote currency",
			},
			[]string{"currency", "side"},
		),
		LastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix timestamp of the last successful refresh",
			},
			[]string{"currency"},
		),
		Ticks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduler_ticks_total",
				Help:      "Polling ticks dispatched by currency",
			},
			[]string{"currency"},
		),
		Subscriptions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scheduler_subscriptions",
				Help:      "Active polling subscriptions",
			},
		),
		UpstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_errors_total",
				Help:      "Upstream input failures by input (offers, reference, official)",
			},
			[]string{"input"},
		),
	}
}

func (m *Metrics) CacheHit(currency string) {
	if m == nil {
		return
	}

	m.CacheLookups.WithLabelValues(currency, "hit").Inc()
}

func (m *Metrics) CacheMiss(currency string) {
	if m == nil {
		return
	}

	m.CacheLookups.WithLabelValues(currency, "miss").Inc()
}

func (m *Metrics) RefreshResult(currency string, err error) {
	if m == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}

	m.Refreshes.WithLabelValues(currency, status).Inc()
}

func (m *Metrics) Stale(currency string) {
	if m == nil {
		return
	}

	m.StaleServed.WithLabelValues(currency).Inc()
}

func (m *Metrics) ObserveFetch(currency string, seconds float64) {
	if m == nil {
		return
	}

	m.FetchDuration.WithLabelValues(currency).Observe(seconds)
}

// SetRate publishes the latest buy / sell values of a quote currency
func (m *Metrics) SetRate(currency string, buy, sell *float64, unix int64) {
	if m == nil {
		return
	}

	if buy != nil {
		m.Rate.WithLabelValues(currency, "buy").Set(*buy)
	}

	if sell != nil {
		m.Rate.WithLabelValues(currency, "sell").Set(*sell)
	}

	m.LastSuccess.WithLabelValues(currency).Set(float64(unix))
}

func (m *Metrics) Tick(currency string) {
	if m == nil {
		return
	}

	m.Ticks.WithLabelValues(currency).Inc()
}

func (m *Metrics) SubscriptionAdded() {
	if m == nil {
		return
	}

	m.Subscriptions.Inc()
}

func (m *Metrics) SubscriptionRemoved() {
	if m == nil {
		return
	}

	m.Subscriptions.Dec()
}

func (m *Metrics) UpstreamError(input string) {
	if m == nil {
		return
	}

	m.UpstreamErrors.WithLabelValues(input).Inc()
}
