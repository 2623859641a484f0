package serve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/jonah3272/boliviablue/blue"
	"github.com/jonah3272/boliviablue/cache"
	"github.com/jonah3272/boliviablue/metrics"
	"github.com/jonah3272/boliviablue/provider/bob"
	"github.com/jonah3272/boliviablue/provider/reference"
	"github.com/jonah3272/boliviablue/scheduler"
	"github.com/jonah3272/boliviablue/server"
	"github.com/jonah3272/boliviablue/server/config"
	"github.com/jonah3272/boliviablue/storage"
	"github.com/jonah3272/boliviablue/storage/types"
)

// referenceRetries is how many times a failed reference rate request is retried
const referenceRetries = 2

// runService wires the rate pipeline over the given store,
// and runs the API server and the rate polling until interrupted
func runService(
	ctx context.Context,
	logger *slog.Logger,
	cfg *config.Config,
	store storage.Storage,
) error {
	rc := cfg.RatesConfig
	if rc == nil {
		rc = config.DefaultRatesConfig()
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := metrics.New(reg)

	// Upstream inputs
	source := blue.NewSource(
		bob.NewBinanceP2PProvider(rc.BinanceURL, rc.FetchTimeout),
		reference.New(rc.ReferenceURL, rc.FetchTimeout, referenceRetries, reference.DefaultRetryWait),
		store,
		blue.WithSourceLogger(logger),
	)

	pipelineOpts := []blue.PipelineOption{
		blue.WithLogger(logger),
		blue.WithMetrics(m),
	}

	if rc.OfficialURL != "" {
		pipelineOpts = append(
			pipelineOpts,
			blue.WithOfficialSource(bob.NewBCBProvider(rc.OfficialURL, rc.FetchTimeout)),
		)
	}

	pipeline := blue.NewPipeline(source, pipelineOpts...)

	// Snapshot cache
	rateCache := cache.New(
		pipeline,
		cache.WithLogger(logger),
		cache.WithMetrics(m),
		cache.WithTTL(rc.CacheTTL),
		cache.WithRetryAfter(rc.RetryAfter),
		cache.WithFetchTimeout(rc.FetchTimeout),
	)

	// Polling, recording every fresh snapshot
	var (
		sched    = scheduler.New(rateCache, scheduler.WithLogger(logger), scheduler.WithMetrics(m))
		recorder = blue.NewRecorder(store, logger)
	)

	for _, currency := range types.QuoteCurrencies {
		if _, err := sched.Subscribe(currency, rc.PollInterval, recorder.Record); err != nil {
			return fmt.Errorf("unable to subscribe %s polling, %w", currency, err)
		}
	}

	// Create the server instance
	s, err := server.New(
		store,
		server.WithLogger(logger),
		server.WithConfig(cfg),
		server.WithRates(rateCache),
		server.WithHistory(source),
		server.WithMetrics(reg),
	)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return s.Serve(gCtx)
	})

	// Start the rate polling
	group.Go(func() error {
		return sched.Start(gCtx)
	})

	logger.Info(
		"rate polling started",
		"poll_interval", rc.PollInterval,
		"cache_ttl", rc.CacheTTL,
		"official_rate", rc.OfficialURL != "",
	)

	return group.Wait()
}

// readConfig reads the server configuration file, if any
func (c *serveCfg) readConfig() error {
	if c.configPath == "" {
		return nil
	}

	serverCfg, err := config.Read(c.configPath)
	if err != nil {
		return fmt.Errorf("unable to read server config, %w", err)
	}

	c.config = serverCfg

	return nil
}
