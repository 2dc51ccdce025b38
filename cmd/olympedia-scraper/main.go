package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Sriram-PR/olympedia-scraper/pkg/config"
	scraperlog "github.com/Sriram-PR/olympedia-scraper/pkg/log"
)

// Version information (set via ldflags at build time)
var (
	Version = "1.1.0-dev"
	Commit  = "unknown"
)

// Persistent flags shared by every subcommand
var (
	cfgFile   string
	logLevel  string
	logFormat string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "olympedia-scraper",
		Short: "Resumable bulk scraper for sequentially numbered athlete pages",
		Long: `Sweeps athlete pages by numeric id, extracts biographical fields and
medal tallies, appends one CSV row per athlete and checkpoints progress after
every attempt so the sweep can be interrupted and resumed.

The sweep stops after a configurable number of consecutive missing ids.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml",
		"Path to YAML config file (a missing file means defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "info",
		"Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format (text, json)")

	rootCmd.AddCommand(
		newCrawlCmd(false),
		newCrawlCmd(true),
		newExtractCmd(),
		newValidateCmd(),
		newMissesCmd(),
		newMcpServerCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig loads and parses the config file
func loadConfig(path string) (*config.AppConfig, error) {
	return config.Load(path)
}

// loadAndValidateConfig loads the config, applies defaults and logs warnings.
// Validation errors are fatal to the caller.
func loadAndValidateConfig(path string) (*config.AppConfig, []string, error) {
	appCfg, err := loadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	warnings, err := appCfg.Validate()
	if err != nil {
		return nil, warnings, err
	}
	return appCfg, warnings, nil
}

// setupLogger builds the process logger. MCP servers pass stderr because the
// protocol owns stdout.
func setupLogger(appCfg *config.AppConfig, out io.Writer) *logrus.Logger {
	file := ""
	if appCfg != nil {
		file = appCfg.LogFile
	}
	opts := scraperlog.Options{Level: logLevel, Format: logFormat, File: file}
	log := scraperlog.New(opts)
	if out != nil && file == "" {
		log.SetOutput(out)
	}
	log.Debugf("Logger: %s", opts.Describe())
	return log
}

// withSignals returns a context cancelled on the first SIGINT/SIGTERM. A second
// signal, or a stalled shutdown, forces exit.
func withSignals(parent context.Context, log *logrus.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("PANIC in signal handler: %v", r)
			}
		}()
		select {
		case sig := <-sigChan:
			log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case sig := <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// logAppConfig logs the effective configuration
func logAppConfig(appCfg *config.AppConfig, log *logrus.Logger) {
	log.Infof("Config: BaseURL:%s, EntityPath:%s, StartID:%d",
		appCfg.BaseURL, appCfg.EntityPath, appCfg.StartID)
	log.Infof("Config: Concurrency:%d, Delay:%v, StopThreshold:%d, RPS:%.2f",
		appCfg.Concurrency, appCfg.Delay, appCfg.StopThreshold, appCfg.RequestsPerSecond)
	log.Infof("Config: Output:%s, Checkpoint:%s, StateDir:%s",
		appCfg.OutputPath, appCfg.CheckpointPath, appCfg.StateDir)
	log.Infof("Config Retries: Max:%d, DelayMin:%v, DelayMax:%v",
		appCfg.MaxRetries, appCfg.RetryDelayMin, appCfg.RetryDelayMax)
	log.Infof("Config HTTP Client: Timeout:%v, MaxIdle:%d, MaxIdlePerHost:%d, IdleTimeout:%v, TLSTimeout:%v, DialerTimeout:%v",
		appCfg.HTTPClientSettings.Timeout, appCfg.HTTPClientSettings.MaxIdleConns, appCfg.HTTPClientSettings.MaxIdleConnsPerHost,
		appCfg.HTTPClientSettings.IdleConnTimeout, appCfg.HTTPClientSettings.TLSHandshakeTimeout, appCfg.HTTPClientSettings.DialerTimeout)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "olympedia-scraper %s (commit %s)\n", Version, Commit)
		},
	}
}
