// Package cache holds the latest blue rate snapshot per quote currency
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonah3272/boliviablue/metrics"
	"github.com/jonah3272/boliviablue/storage/types"
)

var (
	// ErrNoData is returned when a currency was never fetched successfully
	ErrNoData = errors.New("no data yet")

	// ErrUnsupportedCurrency is returned for currencies outside the quote set
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

const (
	DefaultTTL          = 15 * time.Minute
	DefaultRetryAfter   = time.Minute
	DefaultFetchTimeout = 30 * time.Second
)

// Fetcher fetches a fresh snapshot for the given quote currency
type Fetcher interface {
	Fetch(ctx context.Context, currency types.Currency) (*types.RateSnapshot, error)
}

// entry is a single cache slot
type entry struct {
	snapshot  *types.RateSnapshot // last successful snapshot (stale copy after a failure)
	fetchedAt time.Time           // last successful fetch
	failedAt  time.Time           // last failed fetch, zero after a success
	lastErr   error
}

// Cache is a read-through snapshot cache with a single
// in-flight upstream fetch per currency
type Cache struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *metrics.Metrics

	now func() time.Time

	ttl          time.Duration
	retryAfter   time.Duration
	fetchTimeout time.Duration

	group singleflight.Group

	entries map[types.Currency]*entry
	mux     sync.RWMutex
}

// New creates a new rate cache
func New(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:      fetcher,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:          time.Now,
		ttl:          DefaultTTL,
		retryAfter:   DefaultRetryAfter,
		fetchTimeout: DefaultFetchTimeout,
		entries:      make(map[types.Currency]*entry, len(types.QuoteCurrencies)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the cached snapshot for the currency.
// A fresh snapshot is returned without any upstream call.
// A missing or expired snapshot is refreshed first,
// unless a refresh failed within the retry-after window
func (c *Cache) Get(ctx context.Context, currency types.Currency) (*types.RateSnapshot, error) {
	if !currency.IsQuote() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, currency)
	}

	now := c.now()

	c.mux.RLock()
	e, ok := c.entries[currency]

	var (
		snapshot *types.RateSnapshot
		fresh    bool
		backoff  bool
		lastErr  error
	)

	if ok {
		if e.snapshot != nil {
			snapshot = e.snapshot.Clone()
			fresh = now.Sub(e.fetchedAt) < c.ttl
		}

		backoff = !e.failedAt.IsZero() && now.Sub(e.failedAt) < c.retryAfter
		lastErr = e.lastErr
	}
	c.mux.RUnlock()

	if fresh {
		c.metrics.CacheHit(currency.String())

		return snapshot, nil
	}

	if backoff {
		// Upstream failed recently, don't hit it again yet
		if snapshot != nil {
			c.metrics.Stale(currency.String())

			return snapshot.MarkStale(), nil
		}

		return nil, fmt.Errorf("%w: %w", ErrNoData, lastErr)
	}

	c.metrics.CacheMiss(currency.String())

	return c.Refresh(ctx, currency)
}

// Refresh fetches a new snapshot for the currency.
// Concurrent refreshes of the same currency share one upstream fetch.
// On failure the last successful snapshot is returned, marked stale.
// The upstream fetch is not bound to the caller's cancellation,
// the caller only stops waiting for it
func (c *Cache) Refresh(ctx context.Context, currency types.Currency) (*types.RateSnapshot, error) {
	if !currency.IsQuote() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, currency)
	}

	fetchCtx := context.WithoutCancel(ctx)

	ch := c.group.DoChan(currency.String(), func() (any, error) {
		return c.refresh(fetchCtx, currency)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		snapshot, _ := res.Val.(*types.RateSnapshot)

		// Shared callers get their own copy
		return snapshot.Clone(), nil
	}
}

// refresh runs a single upstream fetch, and applies its result
func (c *Cache) refresh(ctx context.Context, currency types.Currency) (*types.RateSnapshot, error) {
	ctx, cancelFn := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancelFn()

	start := time.Now()
	snapshot, err := c.fetcher.Fetch(ctx, currency)

	c.metrics.ObserveFetch(currency.String(), time.Since(start).Seconds())
	c.metrics.RefreshResult(currency.String(), err)

	if err == nil && snapshot == nil {
		err = errors.New("empty snapshot")
	}

	if err != nil {
		return c.fail(currency, err)
	}

	return c.apply(currency, snapshot), nil
}

// apply stores the fetched snapshot, and returns the snapshot now held.
// Snapshots older than the held one are discarded
func (c *Cache) apply(currency types.Currency, snapshot *types.RateSnapshot) *types.RateSnapshot {
	c.mux.Lock()
	defer c.mux.Unlock()

	e := c.entry(currency)

	e.fetchedAt = c.now()
	e.failedAt = time.Time{}
	e.lastErr = nil

	if e.snapshot != nil && snapshot.Timestamp.Before(e.snapshot.Timestamp) {
		c.logger.Warn(
			"discarding out of order snapshot",
			"currency", currency,
			"held", e.snapshot.Timestamp,
			"fetched", snapshot.Timestamp,
		)

		// The held snapshot is current again
		e.snapshot = e.snapshot.Clone()
		e.snapshot.Stale = false

		return e.snapshot
	}

	e.snapshot = snapshot.Clone()
	e.snapshot.Stale = false

	c.metrics.SetRate(
		currency.String(),
		e.snapshot.Buy,
		e.snapshot.Sell,
		e.snapshot.Timestamp.Unix(),
	)

	c.logger.Debug(
		"cached snapshot",
		"currency", currency,
		"timestamp", e.snapshot.Timestamp,
	)

	return e.snapshot
}

// fail records the fetch failure, and returns the stale
// fallback snapshot if there is one
func (c *Cache) fail(currency types.Currency, fetchErr error) (*types.RateSnapshot, error) {
	c.mux.Lock()
	defer c.mux.Unlock()

	e := c.entry(currency)

	e.failedAt = c.now()
	e.lastErr = fetchErr

	if e.snapshot == nil {
		c.logger.Error(
			"unable to fetch snapshot, no fallback",
			"currency", currency,
			"err", fetchErr,
		)

		return nil, fmt.Errorf("%w: %w", ErrNoData, fetchErr)
	}

	c.logger.Warn(
		"unable to fetch snapshot, serving stale",
		"currency", currency,
		"timestamp", e.snapshot.Timestamp,
		"err", fetchErr,
	)

	c.metrics.Stale(currency.String())

	e.snapshot = e.snapshot.MarkStale()

	return e.snapshot, nil
}

// entry returns the slot for the currency, creating it if needed.
// Must be called with the write lock held
func (c *Cache) entry(currency types.Currency) *entry {
	e, ok := c.entries[currency]
	if !ok {
		e = &entry{}
		c.entries[currency] = e
	}

	return e
}
