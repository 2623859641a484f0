package client

import (
	"log/slog"
	"time"
)

type Option func(c *Client)

// WithLogger specifies the logger for the client
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithTimeout specifies the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithRetries specifies how many times transient failures are retried,
// starting delay apart and doubling
func WithRetries(retries uint64, delay time.Duration) Option {
	return func(c *Client) {
		c.backoff = backoffFn(retries, delay)
	}
}
