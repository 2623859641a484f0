// Package watch polls a running service for blue rate updates
package watch

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/jonah3272/boliviablue/cache"
	"github.com/jonah3272/boliviablue/client"
	"github.com/jonah3272/boliviablue/cmd/env"
	"github.com/jonah3272/boliviablue/scheduler"
	"github.com/jonah3272/boliviablue/storage/types"
)

const (
	defaultURL      = "http://127.0.0.1:8545"
	defaultInterval = time.Minute
)

var errInvalidCurrencies = errors.New("invalid currencies (must be a comma separated list of USD, EUR, BRL)")

type watchCfg struct {
	url        string
	currencies string
	interval   time.Duration
	verbose    bool
}

// NewWatchCmd creates the watch command
func NewWatchCmd() *ffcli.Command {
	cfg := &watchCfg{}

	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "watch",
		ShortUsage: "watch [flags]",
		LongHelp:   "Polls the blue rate API, and prints every rate update",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *watchCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.url,
		"url",
		defaultURL,
		"the base URL of the blue rate API",
	)

	fs.StringVar(
		&c.currencies,
		"currency",
		types.CurrencyUSD.String(),
		"the comma separated quote currencies to watch",
	)

	fs.DurationVar(
		&c.interval,
		"interval",
		defaultInterval,
		"the polling interval",
	)

	fs.BoolVar(
		&c.verbose,
		"verbose",
		false,
		"log the polling internals",
	)
}

func (c *watchCfg) exec(ctx context.Context, _ []string) error {
	currencies, err := parseCurrencies(c.currencies)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if c.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	// The remote service is the upstream of a local cache,
	// so failed polls keep printing the last known rate as stale
	var (
		api = client.New(c.url, client.WithLogger(logger))

		rateCache = cache.New(
			api,
			cache.WithLogger(logger),
			cache.WithTTL(c.interval),
			cache.WithRetryAfter(c.interval),
		)

		sched = scheduler.New(rateCache, scheduler.WithLogger(logger))
	)

	for _, currency := range currencies {
		if _, err := sched.Subscribe(currency, c.interval, printUpdate(os.Stdout)); err != nil {
			return fmt.Errorf("unable to watch %s, %w", currency, err)
		}
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancelFn()

	return sched.Start(runCtx)
}

// parseCurrencies parses a comma separated list of quote currencies
func parseCurrencies(raw string) ([]types.Currency, error) {
	var (
		parts      = strings.Split(raw, ",")
		currencies = make([]types.Currency, 0, len(parts))
		seen       = make(map[types.Currency]struct{}, len(parts))
	)

	for _, part := range parts {
		c := types.Currency(strings.ToUpper(strings.TrimSpace(part)))
		if !c.IsQuote() {
			return nil, fmt.Errorf("%w: %q", errInvalidCurrencies, part)
		}

		if _, ok := seen[c]; ok {
			continue
		}

		seen[c] = struct{}{}
		currencies = append(currencies, c)
	}

	return currencies, nil
}

// printUpdate returns a polling callback that prints the snapshot headline
func printUpdate(w io.Writer) scheduler.UpdateFn {
	return func(_ context.Context, snapshot *types.RateSnapshot) {
		_, _ = fmt.Fprintln(w, formatUpdate(snapshot))
	}
}

func formatUpdate(snapshot *types.RateSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(
		&b,
		"%s %s/BOB buy %s sell %s",
		snapshot.Timestamp.UTC().Format(time.RFC3339),
		snapshot.Currency,
		formatRate(snapshot.Buy),
		formatRate(snapshot.Sell),
	)

	if snapshot.OfficialBuy != nil && snapshot.OfficialSell != nil {
		fmt.Fprintf(
			&b,
			" (official %s / %s)",
			formatRate(snapshot.OfficialBuy),
			formatRate(snapshot.OfficialSell),
		)
	}

	if snapshot.Stale {
		b.WriteString(" [stale]")
	}

	return b.String()
}

func formatRate(v *float64) string {
	if v == nil {
		return "n/a"
	}

	return fmt.Sprintf("%.2f", *v)
}
