// Package export downloads a recorded blue rate series as CSV
package export

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/jonah3272/boliviablue/client"
	"github.com/jonah3272/boliviablue/cmd/env"
	"github.com/jonah3272/boliviablue/stats"
	"github.com/jonah3272/boliviablue/storage/types"
)

const defaultURL = "http://127.0.0.1:8545"

var errUnsupportedCurrency = errors.New("unsupported currency (must be one of USD, EUR, BRL)")

type exportCfg struct {
	url      string
	currency string
	rng      string
	out      string
}

// NewExportCmd creates the export command
func NewExportCmd() *ffcli.Command {
	cfg := &exportCfg{}

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "export",
		ShortUsage: "export [flags]",
		LongHelp:   "Exports the recorded blue rate series as CSV, and prints its statistics",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *exportCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.url,
		"url",
		defaultURL,
		"the base URL of the blue rate API",
	)

	fs.StringVar(
		&c.currency,
		"currency",
		types.CurrencyUSD.String(),
		"the quote currency (USD, EUR, BRL)",
	)

	fs.StringVar(
		&c.rng,
		"range",
		types.Range1M.String(),
		"the history range (1D, 1W, 1M, 3M, 1Y, ALL)",
	)

	fs.StringVar(
		&c.out,
		"out",
		"",
		"the output file (defaults to dolar-blue-bolivia-{range}-{date}.csv, - for stdout)",
	)
}

func (c *exportCfg) exec(ctx context.Context, _ []string) error {
	currency := types.Currency(strings.ToUpper(strings.TrimSpace(c.currency)))
	if !currency.IsQuote() {
		return fmt.Errorf("%w: %q", errUnsupportedCurrency, c.currency)
	}

	rng, err := types.ParseRange(c.rng)
	if err != nil {
		return err
	}

	series, err := client.New(c.url).BlueHistory(ctx, currency, rng)
	if err != nil {
		return fmt.Errorf("unable to fetch history, %w", err)
	}

	out := c.out
	if out == "" {
		out = stats.FileName(rng, time.Now())
	}

	if out == "-" {
		return stats.WriteCSV(os.Stdout, series)
	}

	if err := writeFile(out, series); err != nil {
		return err
	}

	fmt.Printf("Exported %d points to %s\n", series.Count, out)

	printStats(os.Stdout, stats.Compute(series))

	return nil
}

func writeFile(path string, series *types.HistoricalSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s, %w", path, err)
	}

	if err := stats.WriteCSV(f, series); err != nil {
		_ = f.Close()

		return fmt.Errorf("unable to write %s, %w", path, err)
	}

	return f.Close()
}

// printStats prints the series statistics summary
func printStats(w io.Writer, s types.Stats) {
	if s.Empty() {
		_, _ = fmt.Fprintln(w, "No data for the range")

		return
	}

	_, _ = fmt.Fprintf(
		w,
		"Average %.2f, max %.2f (%s), min %.2f (%s), volatility %.4f, change %+.2f (%+.2f%%)\n",
		s.Average,
		s.Max,
		s.MaxTimestamp.UTC().Format(time.DateOnly),
		s.Min,
		s.MinTimestamp.UTC().Format(time.DateOnly),
		s.Volatility,
		s.Change,
		s.ChangePercent,
	)
}
