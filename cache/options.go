package cache

import (
	"log/slog"
	"time"

	"github.com/jonah3272/boliviablue/metrics"
)

type Option func(c *Cache)

// WithLogger specifies the logger for the cache
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// WithTTL specifies how long a snapshot is considered fresh.
// Defaults to 15m
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithRetryAfter specifies how long reads are served
// from the cache after a failed refresh, before
// the upstream is queried again. Defaults to 1m
func WithRetryAfter(d time.Duration) Option {
	return func(c *Cache) {
		c.retryAfter = d
	}
}

// WithFetchTimeout specifies the upper bound of a single upstream fetch
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.fetchTimeout = d
	}
}

// WithMetrics specifies the metrics the cache reports to
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}
