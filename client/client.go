// Package client consumes the blue rate read API
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/jonah3272/boliviablue/storage/types"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultRetries    = 3
	DefaultRetryDelay = 250 * time.Millisecond

	blueRatePath    = "/api/blue-rate"
	blueHistoryPath = "/api/blue-history"
)

var (
	// ErrNoData is returned when the service has no snapshot yet
	ErrNoData = errors.New("no data yet")

	// ErrUnexpectedStatus is returned for non-200 responses
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

type errorResponse struct {
	Error string `json:"error"`
}

// Client is the blue rate API client.
// Transient failures (network, 429, 5xx) are retried with exponential backoff
type Client struct {
	http    *http.Client
	logger  *slog.Logger
	backoff func() retry.Backoff
	baseURL string
}

// New creates a new API client for the service at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		baseURL: strings.TrimRight(baseURL, "/"),
	}

	c.backoff = backoffFn(DefaultRetries, DefaultRetryDelay)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func backoffFn(retries uint64, delay time.Duration) func() retry.Backoff {
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	return func() retry.Backoff {
		return retry.WithMaxRetries(retries, retry.NewExponential(delay))
	}
}

// BlueRate fetches the latest blue rate snapshot of the currency
func (c *Client) BlueRate(ctx context.Context, currency types.Currency) (*types.RateSnapshot, error) {
	query := url.Values{}
	query.Set("currency", currency.String())

	var snapshot types.RateSnapshot

	if err := c.get(ctx, blueRatePath, query, &snapshot); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// BlueHistory fetches the recorded series of the currency for the range
func (c *Client) BlueHistory(
	ctx context.Context,
	currency types.Currency,
	rng types.Range,
) (*types.HistoricalSeries, error) {
	query := url.Values{}
	query.Set("currency", currency.String())
	query.Set("range", rng.String())

	var series types.HistoricalSeries

	if err := c.get(ctx, blueHistoryPath, query, &series); err != nil {
		return nil, err
	}

	return &series, nil
}

// Fetch fetches the latest snapshot, so a remote service can back a local rate cache
func (c *Client) Fetch(ctx context.Context, currency types.Currency) (*types.RateSnapshot, error) {
	return c.BlueRate(ctx, currency)
}

// get fetches and decodes the JSON resource, retrying transient failures
func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	endpoint := c.baseURL + path + "?" + query.Encode()

	return retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		err := c.getOnce(ctx, endpoint, dst)
		if err != nil {
			c.logger.Debug(
				"API request failed",
				"url", endpoint,
				"err", err,
			)
		}

		return err
	})
}

func (c *Client) getOnce(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("unable to create request, %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return retry.RetryableError(fmt.Errorf("unable to execute request, %w", err))
	}

	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusServiceUnavailable && isNoData(resp.Body):
		return ErrNoData
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return retry.RetryableError(fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
	default:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("unable to decode response, %w", err)
	}

	return nil
}

// isNoData checks if the error body reports a service with no data yet
func isNoData(body io.Reader) bool {
	var resp errorResponse

	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return false
	}

	return resp.Error == ErrNoData.Error()
}
