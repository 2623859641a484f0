package config

import "time"

const (
	DefaultPollInterval = 15 * time.Minute
	DefaultCacheTTL     = 15 * time.Minute
	DefaultRetryAfter   = time.Minute
	DefaultFetchTimeout = 30 * time.Second

	DefaultBinanceURL   = "https://p2p.binance.com/bapi/c2c/v2/friendly/c2c/adv/search"
	DefaultReferenceURL = "https://open.er-api.com/v6/latest/USD"
	DefaultOfficialURL  = "https://www.bcb.gob.bo/"
)

// Rates defines the rate polling and upstream settings
type Rates struct {
	// The upstream endpoints.
	// An empty official URL disables the official rate
	BinanceURL   string `toml:"binance_url"`
	ReferenceURL string `toml:"reference_url"`
	OfficialURL  string `toml:"official_url"`

	// How often each quote currency is refreshed
	PollInterval time.Duration `toml:"poll_interval"`

	// How long a snapshot is served without a refresh
	CacheTTL time.Duration `toml:"cache_ttl"`

	// How long a failed refresh is not retried on reads
	RetryAfter time.Duration `toml:"retry_after"`

	// The timeout of a single full refresh
	FetchTimeout time.Duration `toml:"fetch_timeout"`
}

// DefaultRatesConfig returns the default rates configuration
func DefaultRatesConfig() *Rates {
	return &Rates{
		BinanceURL:   DefaultBinanceURL,
		ReferenceURL: DefaultReferenceURL,
		OfficialURL:  DefaultOfficialURL,
		PollInterval: DefaultPollInterval,
		CacheTTL:     DefaultCacheTTL,
		RetryAfter:   DefaultRetryAfter,
		FetchTimeout: DefaultFetchTimeout,
	}
}
