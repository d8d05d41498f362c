// Command arenastress hammers a ConcurrentArena from many goroutines,
// verifies that no allocations overlap, and optionally serves the arena's
// statistics for Prometheus.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/pavanmanishd/arena/v2"
	"github.com/pavanmanishd/arena/v2/internal/stress"
	"github.com/pavanmanishd/arena/v2/memtrack"
)

type options struct {
	Threads      int     `short:"t" long:"threads" env:"ARENA_THREADS" default:"8" description:"number of allocating goroutines"`
	Allocs       int     `short:"n" long:"allocs" env:"ARENA_ALLOCS" default:"100000" description:"allocations per goroutine"`
	MaxSize      int     `long:"max-size" env:"ARENA_MAX_SIZE" default:"256" description:"largest allocation in bytes"`
	AlignedRatio float64 `long:"aligned-ratio" env:"ARENA_ALIGNED_RATIO" default:"0.5" description:"share of aligned allocations"`
	Seed         uint64  `long:"seed" env:"ARENA_SEED" default:"1" description:"random seed"`

	BlockSize    int    `long:"block-size" env:"ARENA_BLOCK_SIZE" default:"1048576" description:"arena block size in bytes"`
	HugePageSize int    `long:"huge-page-size" env:"ARENA_HUGE_PAGE_SIZE" default:"0" description:"huge page size in bytes, 0 disables huge pages"`
	MappedBlocks bool   `long:"mapped-blocks" env:"ARENA_MAPPED_BLOCKS" description:"back blocks with anonymous mappings"`
	MemoryLimit  int64  `long:"memory-limit" env:"ARENA_MEMORY_LIMIT" default:"0" description:"memory budget in bytes, 0 disables the budget"`
	ConfigFile   string `short:"c" long:"config" env:"ARENA_CONFIG" description:"YAML arena config; overrides the block and huge page flags"`

	LogLevel    string `long:"log-level" env:"ARENA_LOG_LEVEL" default:"info" description:"log level"`
	LogFormat   string `long:"log-format" env:"ARENA_LOG_FORMAT" default:"text" choice:"text" choice:"json" description:"log format"`
	MetricsAddr string `long:"metrics-addr" env:"ARENA_METRICS_ADDR" description:"serve /metrics on this address after the run until interrupted"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	logger := newLogger(opts)
	if err := run(opts, logger); err != nil {
		logger.WithError(err).Error("arenastress failed")
		os.Exit(1)
	}
}

func newLogger(opts options) *logrus.Logger {
	logger := logrus.New()
	if opts.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(opts.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func run(opts options, logger *logrus.Logger) error {
	cfg := arena.Config{
		BlockSize:    opts.BlockSize,
		HugePageSize: opts.HugePageSize,
		MappedBlocks: opts.MappedBlocks,
	}
	if opts.ConfigFile != "" {
		data, err := os.ReadFile(opts.ConfigFile)
		if err != nil {
			return errors.Wrap(err, "read arena config")
		}
		if cfg, err = arena.ParseConfig(data); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	budget := memtrack.NewBudget(opts.MemoryLimit, logger)
	arenaOpts := append(cfg.Options(),
		arena.WithLogger(logger),
		arena.WithTracker(memtrack.NewAllocTracker(budget)),
	)
	c := arena.NewConcurrentArena(cfg.BlockSize, arenaOpts...)
	defer c.Release()

	logger.WithFields(logrus.Fields{
		"action":     "arenastress_start",
		"threads":    opts.Threads,
		"allocs":     opts.Allocs,
		"block_size": humanize.IBytes(uint64(c.BlockSize())),
		"shard_size": humanize.IBytes(uint64(c.ShardBlockSize())),
		"shards":     c.NumShards(),
	}).Info("starting stress run")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := stress.Run(ctx, c, stress.Workload{
		Workers:      opts.Threads,
		Allocations:  opts.Allocs,
		MaxSize:      opts.MaxSize,
		AlignedRatio: opts.AlignedRatio,
		Seed:         opts.Seed,
	}, logger)
	if err != nil {
		return err
	}
	if budget.Enabled() {
		logger.WithFields(logrus.Fields{
			"action":       "arenastress_budget",
			"used":         humanize.IBytes(uint64(budget.MemoryUsage())),
			"should_flush": budget.ShouldFlush(),
		}).Info("memory budget after run")
	}
	logger.WithField("rate", humanize.SIWithDigits(float64(res.Allocations)/res.Elapsed.Seconds(), 2, "allocs/s")).
		Info("throughput")

	if opts.MetricsAddr == "" {
		return nil
	}
	return serveMetrics(ctx, opts.MetricsAddr, c, logger)
}

func serveMetrics(ctx context.Context, addr string, c *arena.ConcurrentArena, logger logrus.FieldLogger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(arena.NewCollector(c, prometheus.Labels{"arena": "stress"}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
