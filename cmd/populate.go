package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/huangsam/opendxi/core"
	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/internal/logger"
	"github.com/huangsam/opendxi/schema"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// populateCmd refreshes recent sprints in one batch.
var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Fetch and store the last N sprints",
	Long: `Fill the store with the last --limit sprints.

Fetches run concurrently on --workers goroutines and results are written one at
a time. Sprints already stored are skipped unless --force is given. A failed
sprint is reported and does not stop the others.

Examples:
  opendxi populate --limit 6
  opendxi populate --limit 12 --force --workers 4`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePopulate(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot populate sprints", err)
		}
	},
}

// scheduleCmd runs populate on a cron schedule until interrupted.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run populate periodically on a cron schedule",
	Long: `Keep the store fresh by running populate on a standard 5-field cron schedule.

A run that is still going when the next one is due is skipped. With
--metrics-addr the pipeline's Prometheus metrics are served at /metrics.

Examples:
  opendxi schedule --cron "0 6 * * *" --limit 2
  opendxi schedule --cron "@hourly" --metrics-addr :9090`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runSchedule(rootCtx, viper.GetString("cron"), viper.GetString("metrics-addr"))
	},
}

func runSchedule(ctx context.Context, spec, metricsAddr string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return schema.NewValidationError("cron", err.Error())
	}

	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() { scheduledPopulate(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule populate: %w", err)
	}

	var srv *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(core.Registry, promhttp.HandlerOpts{}))
		srv = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", metricsAddr).Msg("Metrics server stopped")
			}
		}()
		logger.Info().Str("addr", metricsAddr).Msg("Serving metrics")
	}

	c.Start()
	logger.Info().Str("cron", spec).Int("limit", cfg.Limit).Msg("Scheduler started")
	fmt.Printf("⏰ Refreshing the last %d sprints on %q. Press Ctrl+C to stop.\n", cfg.Limit, spec)

	<-ctx.Done()
	<-c.Stop().Done()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop metrics server: %w", err)
		}
	}
	logger.Info().Msg("Scheduler stopped")
	return nil
}

func scheduledPopulate(ctx context.Context) {
	report, err := core.RunPopulate(ctx, cfg, storeManager)
	if err != nil {
		logger.Error().Err(err).Str("run_id", report.RunID).Msg("Scheduled populate failed")
		return
	}
	logger.Info().
		Str("run_id", report.RunID).
		Int("sprints", len(report.Results)).
		Int("failed", report.Failed()).
		Dur("elapsed", report.Duration).
		Msg("Scheduled populate finished")
}
