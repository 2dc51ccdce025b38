package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Sriram-PR/olympedia-scraper/pkg/config"
	"github.com/Sriram-PR/olympedia-scraper/pkg/extract"
	"github.com/Sriram-PR/olympedia-scraper/pkg/fetch"
	"github.com/Sriram-PR/olympedia-scraper/pkg/models"
	"github.com/Sriram-PR/olympedia-scraper/pkg/storage"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <id>",
		Short: "Fetch and extract a single id, printing the record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q: must be a positive integer", args[0])
			}
			appCfg, _, err := loadAndValidateConfig(cfgFile)
			if err != nil {
				return err
			}
			log := setupLogger(appCfg, cmd.ErrOrStderr())
			if code := doExtract(cmd.Context(), appCfg, id, log, cmd.OutOrStdout(), cmd.ErrOrStderr()); code != 0 {
				return fmt.Errorf("extract failed for id %d", id)
			}
			return nil
		},
	}
}

// extractOutput is the JSON document printed by the extract command
type extractOutput struct {
	ID     int            `json:"id"`
	URL    string         `json:"url"`
	Record *models.Record `json:"record"`
	Events []models.Event `json:"events"`
}

// doExtract fetches one id and prints its record. Returns exit code.
func doExtract(ctx context.Context, appCfg *config.AppConfig, id int, log *logrus.Logger, stdout, stderr io.Writer) int {
	entry := logrus.NewEntry(log)
	client := fetch.NewClient(appCfg.HTTPClientSettings, entry)
	fetcher := fetch.NewFetcher(client, appCfg, fetch.NewRequestLimiter(appCfg.RequestsPerSecond), entry)

	page, err := fetcher.FetchEntity(ctx, id)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	rec, events := extract.Entity(id, page.Doc)
	if events == nil {
		events = []models.Event{}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(extractOutput{ID: id, URL: page.URL, Record: rec, Events: events}); err != nil {
		fmt.Fprintf(stderr, "Error: encoding output: %v\n", err)
		return 1
	}
	return 0
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config file and print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := doValidate(cfgFile, cmd.OutOrStdout(), cmd.ErrOrStderr()); code != 0 {
				return fmt.Errorf("configuration invalid")
			}
			return nil
		},
	}
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "OK: target %s\n", appCfg.EntityURL(appCfg.StartID))
	fmt.Fprintf(stdout, "OK: concurrency=%d delay=%v stop_threshold=%d\n",
		appCfg.Concurrency, appCfg.Delay, appCfg.StopThreshold)
	fmt.Fprintf(stdout, "OK: output=%s checkpoint=%s state_dir=%s\n",
		appCfg.OutputPath, appCfg.CheckpointPath, appCfg.StateDir)

	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

func newMissesCmd() *cobra.Command {
	var limit int
	var outFile string

	cmd := &cobra.Command{
		Use:   "misses",
		Short: "List ids whose last attempt was a miss or error, with ledger totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, _, err := loadAndValidateConfig(cfgFile)
			if err != nil {
				return err
			}
			log := setupLogger(appCfg, cmd.ErrOrStderr())
			if code := doMisses(cmd.Context(), appCfg, limit, outFile, log, cmd.OutOrStdout(), cmd.ErrOrStderr()); code != 0 {
				return fmt.Errorf("misses failed")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum ids to print (0 = all)")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write every missed id to this file instead of printing")
	return cmd
}

// doMisses reports the ledger contents. Returns exit code.
func doMisses(ctx context.Context, appCfg *config.AppConfig, limit int, outFile string, log *logrus.Logger, stdout, stderr io.Writer) int {
	ledger, err := storage.NewBadgerStore(appCfg.StateDir, storage.Options{ReadOnly: true}, logrus.NewEntry(log))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer ledger.Close()

	stats, err := ledger.Stats(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Attempted: %d (found %d, missed %d, errored %d), highest id %d\n",
		stats.Total(), stats.Found, stats.Missed, stats.Errored, stats.Highest)

	if outFile != "" {
		n, err := ledger.WriteMissLog(ctx, outFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Wrote %d ids to %s\n", n, outFile)
		return 0
	}

	ids, err := ledger.ListMisses(ctx, limit)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for _, id := range ids {
		status, entry, err := ledger.GetAttempt(id)
		if err != nil || entry == nil {
			fmt.Fprintf(stdout, "%d\t%s\n", id, status)
			continue
		}
		fmt.Fprintf(stdout, "%d\t%s\t%s\n", id, status, entry.ErrorType)
	}
	return 0
}
