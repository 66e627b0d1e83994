// ABOUTME: Root Cobra command for caretrack CLI.
// ABOUTME: Builds config, logger, store, queue, monitor, and tracker in PersistentPreRunE.
package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/harperreed/caretrack/internal/audit"
	"github.com/harperreed/caretrack/internal/config"
	"github.com/harperreed/caretrack/internal/connectivity"
	"github.com/harperreed/caretrack/internal/logging"
	"github.com/harperreed/caretrack/internal/queue"
	"github.com/harperreed/caretrack/internal/storage"
	"github.com/harperreed/caretrack/internal/sync"
	"github.com/harperreed/caretrack/internal/telemetry"
	"github.com/harperreed/caretrack/internal/tracker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagOffline   bool
	flagEphemeral bool
	flagDebug     bool

	cfg        *config.Config
	logger     = zap.NewNop()
	metrics    *telemetry.Metrics
	repo       storage.Repository
	queueStore queue.Storage
	monitor    *connectivity.Monitor
	app        *tracker.Tracker
)

var rootCmd = &cobra.Command{
	Use:           "caretrack",
	Short:         "Wound-care compliance tracker",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `CareTrack logs wound-care compliance sessions and shows how hospitals are doing.

WHAT IT TRACKS:

  Each session records seven ratios (patients meeting a criterion over
  qualifying patients): matt_applied, wedges_applied, turning_criteria,
  matt_proper, wedges_in_room, wedge_offload, air_supply.

QUICK START:

  $ caretrack log --hospital "St. Mary" --metric matt_applied=8/10
  $ caretrack list                       # Recent sessions
  $ caretrack dashboard --hospital All   # Averages, tiers, benchmark
  $ caretrack trends                     # This month vs last month
  $ caretrack leaderboard --by location  # Rank units

OFFLINE:

  Sessions logged while the store is unreachable are saved locally and
  marked pending. They sync on the next 'caretrack sync run' or
  automatically while 'caretrack watch' is running.

  $ caretrack queue        # Show pending sessions
  $ caretrack sync status  # Last sync pass

MCP INTEGRATION:

  Run 'caretrack mcp' to start the Model Context Protocol server:

  {
    "mcpServers": {
      "caretrack": { "command": "caretrack", "args": ["mcp"] }
    }
  }

CONFIGURATION:

  ~/.config/caretrack/config.json, overridden by CARETRACK_* variables
  and a .env file in the working directory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}
		return setup(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "treat the remote store as unreachable")
	rootCmd.PersistentFlags().BoolVar(&flagEphemeral, "ephemeral", false, "keep the pending queue in memory only")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "verbose development logging")
}

func setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err = logging.New(logging.Options{Level: cfg.LogLevel, Debug: flagDebug})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	metrics = telemetry.New()

	repo, err = cfg.OpenStorage()
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	if flagEphemeral {
		queueStore = queue.NewMemoryStorage()
	} else if qs, err := cfg.OpenQueue(); err != nil {
		// The queue still works in memory; Open reports it as degraded.
		logger.Warn("open queue storage", zap.Error(err))
		queueStore = nil
	} else {
		queueStore = qs
	}
	pending := queue.Open(ctx, queueStore,
		queue.WithLogger(logger.Named("queue")),
		queue.WithMetrics(metrics),
		queue.OnDegraded(func(err error) {
			color.Yellow("⚠ Pending sessions can't be saved to disk (%v); they will be lost if caretrack exits before syncing.", err)
		}),
	)

	monitorOpts := []connectivity.Option{
		connectivity.WithLogger(logger.Named("connectivity")),
		connectivity.WithMetrics(metrics),
		connectivity.OnReconnect(func(ctx context.Context) {
			res, err := app.Sync(ctx)
			if err != nil {
				logger.Warn("sync on reconnect", zap.Error(err))
				return
			}
			logger.Info("sync on reconnect", zap.Int("synced", res.Synced), zap.Int("remaining", res.Remaining))
		}),
	}
	switch {
	case flagOffline:
		monitor = connectivity.NewMonitor(connectivity.Offline, monitorOpts...)
	case cfg.ProbeURL != "":
		monitor = connectivity.NewMonitorFromProbe(ctx, connectivity.HTTPProber{URL: cfg.ProbeURL}, monitorOpts...)
	default:
		monitor = connectivity.NewMonitor(connectivity.Online, monitorOpts...)
	}

	app = tracker.New(repo, pending,
		tracker.WithConnectivity(monitor),
		tracker.WithAudit(audit.Multi{repo, audit.NewLogSink(logger.Named("audit"))}),
		tracker.WithIdentity(cfg.Identity),
		tracker.WithHospitals(cfg.Hospitals...),
		tracker.WithTimeout(cfg.GetRemoteTimeout()),
		tracker.WithSyncState(sync.StatePath(cfg.GetDataDir())),
		tracker.WithLogger(logger),
		tracker.WithMetrics(metrics),
	)
	return nil
}

// teardown releases what setup opened. It runs even when a command fails
// so the Badger queue directory is always closed cleanly.
func teardown() error {
	if monitor != nil {
		monitor.Wait()
	}
	var firstErr error
	if c, ok := queueStore.(io.Closer); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if repo != nil {
		if err := repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = logger.Sync()
	return firstErr
}

// load refreshes the live set, warning instead of failing when the store is unreachable.
func load(ctx context.Context) {
	if err := app.Load(ctx); err != nil {
		color.Yellow("⚠ Showing pending sessions only: %v", err)
	}
}
