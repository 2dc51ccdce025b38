package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Sriram-PR/olympedia-scraper/pkg/checkpoint"
	"github.com/Sriram-PR/olympedia-scraper/pkg/config"
	"github.com/Sriram-PR/olympedia-scraper/pkg/crawler"
	"github.com/Sriram-PR/olympedia-scraper/pkg/fetch"
	"github.com/Sriram-PR/olympedia-scraper/pkg/metrics"
	"github.com/Sriram-PR/olympedia-scraper/pkg/sink"
	"github.com/Sriram-PR/olympedia-scraper/pkg/storage"
	"github.com/Sriram-PR/olympedia-scraper/pkg/utils"
)

// crawlFlags holds the command-line overrides for a sweep
type crawlFlags struct {
	start         int
	concurrency   int
	delay         time.Duration
	stopThreshold int
	out           string
	checkpoint    string
	stateDir      string
	metricsAddr   string
	resume        bool
}

func newCrawlCmd(isResume bool) *cobra.Command {
	var flags crawlFlags

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Sweep ids from --start until the stop threshold is reached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if isResume {
				flags.resume = true
			}
			return runCrawlCommand(cmd, &flags)
		},
	}
	if isResume {
		cmd.Use = "resume"
		cmd.Short = "Continue a sweep from the id after the saved checkpoint"
	}

	bindCrawlFlags(cmd.Flags(), &flags, isResume)
	return cmd
}

func bindCrawlFlags(f *pflag.FlagSet, flags *crawlFlags, isResume bool) {
	f.IntVar(&flags.start, "start", config.DefaultStartID, "First id to try")
	f.IntVar(&flags.concurrency, "concurrency", config.DefaultConcurrency, "Parallel workers (also the window width)")
	f.DurationVar(&flags.delay, "delay", config.DefaultDelay, "Base politeness delay per task (actual sleep is delay to 2x delay)")
	f.IntVar(&flags.stopThreshold, "stop-threshold", config.DefaultStopThreshold, "Stop after this many consecutive missing ids")
	f.StringVarP(&flags.out, "out", "o", config.DefaultOutputPath, "CSV output path")
	f.StringVar(&flags.checkpoint, "checkpoint", config.DefaultCheckpointPath, "Checkpoint file path")
	f.StringVar(&flags.stateDir, "state-dir", config.DefaultStateDir, "Directory for the attempt ledger")
	f.StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. ':9090')")
	if !isResume {
		f.BoolVar(&flags.resume, "resume", false, "Resume from the saved checkpoint")
	}
}

// applyCrawlOverrides copies every flag the user actually set onto appCfg.
// Flags left at their defaults never override config file values.
func applyCrawlOverrides(appCfg *config.AppConfig, fs *pflag.FlagSet, flags *crawlFlags) {
	if fs.Changed("start") {
		appCfg.StartID = flags.start
	}
	if fs.Changed("concurrency") {
		appCfg.Concurrency = flags.concurrency
	}
	if fs.Changed("delay") {
		appCfg.Delay = flags.delay
	}
	if fs.Changed("stop-threshold") {
		appCfg.StopThreshold = flags.stopThreshold
	}
	if fs.Changed("out") {
		appCfg.OutputPath = flags.out
	}
	if fs.Changed("checkpoint") {
		appCfg.CheckpointPath = flags.checkpoint
	}
	if fs.Changed("state-dir") {
		appCfg.StateDir = flags.stateDir
	}
	if fs.Changed("metrics-addr") {
		appCfg.MetricsAddr = flags.metricsAddr
	}
}

func runCrawlCommand(cmd *cobra.Command, flags *crawlFlags) error {
	appCfg, err := loadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyCrawlOverrides(appCfg, cmd.Flags(), flags)

	warnings, err := appCfg.Validate()
	if err != nil {
		return err
	}

	log := setupLogger(appCfg, nil)
	for _, w := range warnings {
		log.Warn(w)
	}
	logAppConfig(appCfg, log)

	ctx, stop := withSignals(cmd.Context(), log)
	defer stop()

	res, err := runCrawl(ctx, appCfg, flags.resume, log)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Sweep cancelled gracefully.")
			fmt.Fprintf(cmd.OutOrStdout(), "Interrupted. Resume with: olympedia-scraper resume\n")
			return nil
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stopped at id %d (found %d, missed %d)\n", res.StoppedAt, res.Found, res.Missed)
	return nil
}

// runCrawl wires every component for one sweep and runs it to completion.
// appCfg must already be validated.
func runCrawl(ctx context.Context, appCfg *config.AppConfig, resume bool, log *logrus.Logger) (crawler.Result, error) {
	entry := logrus.NewEntry(log)

	// --- Output & Checkpoint ---
	csvSink := sink.NewCSVSink(appCfg.OutputPath, entry)
	if err := csvSink.EnsureHeader(); err != nil {
		return crawler.Result{}, utils.WrapErrorf(err, "preparing output %s", appCfg.OutputPath)
	}
	cp := checkpoint.NewStore(appCfg.CheckpointPath, entry)

	// --- Attempt Ledger ---
	ledger, err := storage.NewBadgerStore(appCfg.StateDir, storage.Options{Fresh: !resume}, entry)
	if err != nil {
		return crawler.Result{}, utils.WrapErrorf(err, "opening attempt ledger")
	}
	defer ledger.Close()

	gcCtx, stopGC := context.WithCancel(ctx)
	defer stopGC()
	go ledger.RunGC(gcCtx, 10*time.Minute)

	// --- Metrics ---
	metrics.Init()
	if appCfg.MetricsAddr != "" {
		shutdown := startMetricsServer(appCfg.MetricsAddr, log)
		defer shutdown()
	}

	// --- Fetching ---
	httpClient := fetch.NewClient(appCfg.HTTPClientSettings, entry)
	limiter := fetch.NewRequestLimiter(appCfg.RequestsPerSecond)
	fetcher := fetch.NewFetcher(httpClient, appCfg, limiter, entry)
	pacer := fetch.NewPoliteness(appCfg.Delay, entry)

	// --- Sweep ---
	worker := crawler.NewWorker(fetcher, csvSink, cp, ledger, pacer, entry.WithField("component", "worker"))
	driver := crawler.NewDriver(worker, cp, crawler.Options{
		Concurrency:   appCfg.Concurrency,
		StopThreshold: appCfg.StopThreshold,
		ProgressEvery: appCfg.ProgressEvery,
	}, entry.WithField("component", "driver"))

	last := 0
	if resume {
		last = cp.Load()
	}
	startID := crawler.StartID(appCfg.StartID, resume, last)
	log.WithFields(logrus.Fields{"run_id": driver.RunID(), "resume": resume, "checkpoint": last}).
		Infof("Starting sweep at id %d", startID)

	res, err := driver.Run(ctx, startID)

	summary := log.WithField("run_id", res.RunID)
	summary.Info("========================================================================")
	summary.Info("SWEEP FINISHED")
	summary.Infof("Duration:         %v", res.Duration)
	summary.Infof("Final Stats: Found: %d, Missed: %d, Windows: %d, Ledger ids: %d",
		res.Found, res.Missed, res.Windows, ledger.GetAttemptCount())
	summary.Info("========================================================================")

	return res, err
}

// startMetricsServer serves /metrics until the returned shutdown func is called
func startMetricsServer(addr string, log *logrus.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Infof("Serving metrics on http://%s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server failed on %s: %v", addr, err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warnf("Metrics server shutdown: %v", err)
		}
	}
}
