package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"talabat-menusync/config"
	"talabat-menusync/scraper"
	"talabat-menusync/store"
	"talabat-menusync/syncer"
)

var syncFlags struct {
	file        string
	url         string
	restaurant  string
	dbPath      string
	timeoutSec  int
	retries     int
	backoffSec  float64
	debugDir    string
	metricsAddr string
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync restaurant menus into the local store",
	Long: `Sync scrapes each configured restaurant and reconciles the result against
the stored menu: unchanged menus are skipped by hash, new items created,
matched items touched up, and vanished items marked unavailable.`,
	Example: `  menusync sync --file restaurants_to_sync.json
  menusync sync --file restaurants_to_sync.json --restaurant "Balbaa"
  menusync sync --url "https://www.talabat.com/egypt/restaurant/771378/balbaa"`,
	RunE: runSync,
}

func init() {
	f := syncCmd.Flags()
	defaults := config.DefaultConfig()
	dbDefault := defaults.DBPath
	if value, ok := config.EnvString("MENUSYNC_DB"); ok {
		dbDefault = value
	}
	metricsDefault := ""
	if value, ok := config.EnvString("MENUSYNC_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	retriesDefault := 3
	if value, ok, err := config.EnvInt("MENUSYNC_RETRIES"); err == nil && ok {
		retriesDefault = value
	}
	f.StringVar(&syncFlags.file, "file", "", "Path to the restaurants JSON file ([{name, url}, ...])")
	f.StringVar(&syncFlags.url, "url", "", "Sync a single registered menu by URL (bypasses the file)")
	f.StringVar(&syncFlags.restaurant, "restaurant", "", "Sync only this restaurant by name")
	f.StringVar(&syncFlags.dbPath, "db", dbDefault, "SQLite database path")
	f.IntVar(&syncFlags.timeoutSec, "timeout", int(defaults.Timeout.Seconds()), "HTTP timeout per attempt (seconds)")
	f.IntVar(&syncFlags.retries, "retries", retriesDefault, "Number of retries (total attempts = retries + 1)")
	f.Float64Var(&syncFlags.backoffSec, "backoff", 2.0, "Backoff base seconds (exponential)")
	f.StringVar(&syncFlags.debugDir, "debug-dir", "", "Directory for per-restaurant debug HTML")
	f.StringVar(&syncFlags.metricsAddr, "metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncFlags.file == "" && syncFlags.url == "" {
		return fmt.Errorf("either --file or --url must be provided")
	}

	st, err := store.Open(syncFlags.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	cfg := config.DefaultConfig()
	fetchMetrics := scraper.NewMetrics()
	syncMetrics := syncer.NewMetrics(fetchMetrics.Registry)
	fetcher := scraper.NewFetcher(scraper.FetchOptions{
		Timeout:    time.Duration(syncFlags.timeoutSec) * time.Second,
		MaxRetries: syncFlags.retries,
		Backoff:    time.Duration(syncFlags.backoffSec * float64(time.Second)),
		UserAgent:  cfg.UserAgent,
	}, fetchMetrics)

	service, err := syncer.New(st, fetcher, syncMetrics, syncFlags.debugDir)
	if err != nil {
		return err
	}

	var metricsServer *http.Server
	if syncFlags.metricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    syncFlags.metricsAddr,
			Handler: promhttp.HandlerFor(fetchMetrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if serr := metricsServer.ListenAndServe(); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", serr))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", syncFlags.metricsAddr))
		defer metricsServer.Close()
	}

	ctx := cmd.Context()
	var outcomes []syncer.Outcome
	if syncFlags.url != "" {
		outcome := service.SyncURL(ctx, syncFlags.url)
		if outcome.Err != nil {
			return outcome.Err
		}
		outcomes = append(outcomes, outcome)
	} else {
		configs, lerr := syncer.LoadRestaurants(syncFlags.file)
		if lerr != nil {
			return lerr
		}
		outcomes = service.SyncAll(ctx, configs, syncFlags.restaurant)
	}

	printSyncSummary(outcomes)
	return nil
}

func printSyncSummary(outcomes []syncer.Outcome) {
	var failed int
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
			fmt.Printf("- %s: FAILED (%v)\n", o.Restaurant, o.Err)
		case o.Unchanged:
			fmt.Printf("- %s: unchanged (%d items)\n", o.Restaurant, o.Items)
		default:
			fmt.Printf("- %s: %d items (created %d, updated %d, removed %d)\n",
				o.Restaurant, o.Items, o.Created, o.Updated, o.Removed)
		}
	}
	fmt.Printf("\nMenu syncing completed: %d ok, %d failed\n", len(outcomes)-failed, failed)
}
