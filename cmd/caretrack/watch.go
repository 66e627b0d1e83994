// ABOUTME: CLI command that watches connectivity and syncs on reconnect.
// ABOUTME: Optionally serves Prometheus metrics while it runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/caretrack/internal/connectivity"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	watchProbe       string
	watchInterval    time.Duration
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync automatically whenever the connection returns",
	Long: `Probe the store on an interval and run a sync pass each time the
connection comes back. Runs until interrupted.

The probe is an HTTP HEAD request; any response below 500 counts as online.

EXAMPLES:

  caretrack watch --probe https://store.example.org/health
  caretrack watch --interval 10s --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		probe := watchProbe
		if probe == "" {
			probe = cfg.ProbeURL
		}
		if probe == "" {
			return fmt.Errorf("no probe URL: pass --probe or set probe_url in the config")
		}
		interval := watchInterval
		if interval <= 0 {
			interval = cfg.GetProbeInterval()
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if watchMetricsAddr != "" {
			srv := &http.Server{Addr: watchMetricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server", zap.Error(err))
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
			fmt.Printf("Serving metrics on %s/metrics\n", watchMetricsAddr)
		}

		// Drain anything queued before the watch started.
		if app.Online() && app.Pending() > 0 {
			monitor.Trigger(ctx)
		}

		poller := &connectivity.Poller{
			Prober:   connectivity.HTTPProber{URL: probe},
			Interval: interval,
			Logger:   logger.Named("probe"),
		}
		color.Green("✓ Watching %s every %s (%d pending)", probe, interval, app.Pending())

		err := monitor.Run(ctx, poller.Readings(ctx))
		monitor.Wait()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func init() {
	watchCmd.Flags().StringVar(&watchProbe, "probe", "", "URL to probe (default: probe_url from config)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "time between probes (default: probe_interval from config)")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.AddCommand(watchCmd)
}
