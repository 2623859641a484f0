package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/pelletier/go-toml"
)

const DefaultListenAddress = "0.0.0.0:8545"

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidRatesConfig   = errors.New("invalid rates config")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the base-level server configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The rate polling and upstream settings
	RatesConfig *Rates `toml:"rates_config"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		CORSConfig:    DefaultCORSConfig(),
		RatesConfig:   DefaultRatesConfig(),
	}
}

// ValidateConfig validates the server configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	// Validate the rates config, if any
	if config.RatesConfig != nil {
		if err := validateRatesConfig(config.RatesConfig); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRatesConfig, err)
		}
	}

	return nil
}

func validateRatesConfig(rc *Rates) error {
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"poll_interval", rc.PollInterval},
		{"cache_ttl", rc.CacheTTL},
		{"retry_after", rc.RetryAfter},
		{"fetch_timeout", rc.FetchTimeout},
	}

	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}

	urls := []struct {
		name  string
		value string
	}{
		{"binance_url", rc.BinanceURL},
		{"reference_url", rc.ReferenceURL},
	}

	// The official rate is optional
	if rc.OfficialURL != "" {
		urls = append(urls, struct {
			name  string
			value string
		}{"official_url", rc.OfficialURL})
	}

	for _, u := range urls {
		parsed, err := url.Parse(u.value)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("%s must be an absolute HTTP(S) URL, got %q", u.name, u.value)
		}
	}

	return nil
}

// Read reads the configuration from the given path.
// Missing sections keep their defaults
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	cfg := DefaultConfig()

	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
