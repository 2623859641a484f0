//nolint:tagliatelle // the API uses snake case
package reference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/jonah3272/boliviablue/provider/currencies"
	"github.com/jonah3272/boliviablue/storage/types"
)

// URL is the open exchange rate API, quoting every currency against USD
const URL = "https://open.er-api.com/v6/latest/USD"

const DefaultRetryWait = 500 * time.Millisecond

var (
	errUnsuccessful = errors.New("unsuccessful response")
	errUnexpected   = errors.New("unexpected base currency")
)

// tracked are the currencies kept from the reference response
var tracked = []types.Currency{
	currencies.EUR,
	currencies.BRL,
}

type latestResponse struct {
	Rates          map[string]float64 `json:"rates"`
	Result         string             `json:"result"`
	BaseCode       string             `json:"base_code"`
	ErrorType      string             `json:"error-type"`
	TimeLastUpdate int64              `json:"time_last_update_unix"`
}

// Provider fetches published USD spot rates
type Provider struct {
	client  *http.Client
	backoff func() retry.Backoff
	url     string
}

// New creates a new reference rate provider.
// Failed requests are retried up to retries times, wait apart
func New(url string, timeout time.Duration, retries uint64, wait time.Duration) *Provider {
	if wait <= 0 {
		wait = DefaultRetryWait
	}

	return &Provider{
		client: &http.Client{
			Timeout: timeout,
		},
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(retries, retry.NewConstant(wait))
		},
		url: url,
	}
}

// ReferenceRates fetches the units of EUR and BRL per 1 USD
func (p *Provider) ReferenceRates(ctx context.Context) (*types.ReferenceRates, error) {
	var resp *latestResponse

	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		r, err := p.fetchLatest(ctx)
		if err != nil {
			return err
		}

		resp = r

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to fetch reference rates: %w", err)
	}

	if resp.BaseCode != currencies.USD.String() {
		return nil, fmt.Errorf("%w: %q", errUnexpected, resp.BaseCode)
	}

	refs := &types.ReferenceRates{
		AsOf:   time.Unix(resp.TimeLastUpdate, 0).UTC(),
		PerUSD: make(map[types.Currency]float64, len(tracked)),
	}

	for _, c := range tracked {
		// Missing currencies are left out, the cross rate treats them as unavailable
		if v, ok := resp.Rates[c.String()]; ok {
			refs.PerUSD[c] = v
		}
	}

	return refs, nil
}

// fetchLatest executes a single request.
// Transient failures are marked retryable
func (p *Provider) fetchLatest(ctx context.Context) (*latestResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("unable to create new GET request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, retry.RetryableError(fmt.Errorf("unable to execute GET request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, retry.RetryableError(fmt.Errorf("invalid status code received: %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	var latest latestResponse
	if err = json.NewDecoder(resp.Body).Decode(&latest); err != nil {
		return nil, fmt.Errorf("unable to decode response: %w", err)
	}

	if latest.Result != "success" {
		return nil, fmt.Errorf("%w: %s", errUnsuccessful, latest.ErrorType)
	}

	return &latest, nil
}
