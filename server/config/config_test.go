package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateConfig(t *testing.T) {
	t.Parallel()

	t.Run("invalid listen address", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.ListenAddress = "rando-address" // doesn't follow the format

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidListenAddress)
	})

	t.Run("invalid rates config", func(t *testing.T) {
		t.Parallel()

		testTable := []struct {
			name     string
			modifyFn func(*Rates)
		}{
			{
				"zero poll interval",
				func(r *Rates) {
					r.PollInterval = 0
				},
			},
			{
				"negative cache TTL",
				func(r *Rates) {
					r.CacheTTL = -time.Minute
				},
			},
			{
				"zero retry after",
				func(r *Rates) {
					r.RetryAfter = 0
				},
			},
			{
				"zero fetch timeout",
				func(r *Rates) {
					r.FetchTimeout = 0
				},
			},
			{
				"relative binance URL",
				func(r *Rates) {
					r.BinanceURL = "/bapi/c2c"
				},
			},
			{
				"missing reference URL",
				func(r *Rates) {
					r.ReferenceURL = ""
				},
			},
			{
				"unsupported official URL scheme",
				func(r *Rates) {
					r.OfficialURL = "ftp://www.bcb.gob.bo"
				},
			},
		}

		for _, testCase := range testTable {
			t.Run(testCase.name, func(t *testing.T) {
				t.Parallel()

				cfg := DefaultConfig()
				testCase.modifyFn(cfg.RatesConfig)

				assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidRatesConfig)
			})
		}
	})

	t.Run("official rate disabled", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.RatesConfig.OfficialURL = ""

		assert.NoError(t, ValidateConfig(cfg))
	})

	t.Run("no rates config", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.RatesConfig = nil

		assert.NoError(t, ValidateConfig(cfg))
	})

	t.Run("valid configuration", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, ValidateConfig(DefaultConfig()))
	})
}

func TestConfig_Read(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := Read(filepath.Join(t.TempDir(), "missing.toml"))
		assert.Error(t, err)
	})

	t.Run("invalid TOML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("listen_address = "), 0o600))

		_, err := Read(path)
		assert.Error(t, err)
	})

	t.Run("missing sections keep defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(`listen_address = "127.0.0.1:9000"`), 0o600))

		cfg, err := Read(path)
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddress)
		assert.Equal(t, DefaultCORSConfig(), cfg.CORSConfig)
		assert.Equal(t, DefaultRatesConfig(), cfg.RatesConfig)
		assert.NoError(t, ValidateConfig(cfg))
	})
}
