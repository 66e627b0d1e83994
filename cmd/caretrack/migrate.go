// ABOUTME: CLI command for copying data between storage backends.
// ABOUTME: Moves sessions and audit rows from the configured store to another.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/caretrack/internal/config"
	"github.com/harperreed/caretrack/internal/storage"
	"github.com/spf13/cobra"
)

var (
	migrateTo      string
	migrateDataDir string
	migrateDryRun  bool
	migrateForce   bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy data to another storage backend",
	Long: `Copy every session and audit row from the configured backend to another one.

IMPORTANT:

  - Sessions get new IDs in the destination; dates, authors, and creation
    times are kept
  - The destination should be empty; use --force to copy into one that isn't
  - Pending sessions are not copied; sync them first
  - Run with --dry-run first to see what would be migrated

USAGE:

  caretrack migrate --to charm --dry-run
  caretrack migrate --to sqlite --data-dir ~/caretrack-backup

AFTER MIGRATION:

  Point the config at the new backend:
    {"backend": "charm"}`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dstCfg := &config.Config{Backend: migrateTo, DataDir: migrateDataDir}
		if migrateDataDir == "" {
			dstCfg.DataDir = cfg.DataDir
		}
		if err := dstCfg.Validate(); err != nil {
			return err
		}
		if dstCfg.GetBackend() == cfg.GetBackend() && dstCfg.GetDataDir() == cfg.GetDataDir() {
			return fmt.Errorf("source and destination are the same %s store", cfg.GetBackend())
		}

		sessions, err := repo.FetchSessions(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to read source: %w", err)
		}
		if n := app.Pending(); n > 0 {
			color.Yellow("⚠ %d pending sessions are not copied; run 'caretrack sync run' first.", n)
		}

		if migrateDryRun {
			color.Yellow("Dry run mode - no changes will be made")
			fmt.Printf("Would copy %d sessions from %s to %s\n", len(sessions), cfg.GetBackend(), dstCfg.GetBackend())
			return nil
		}

		dst, err := dstCfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open destination: %w", err)
		}
		defer dst.Close()

		existing, err := dst.FetchSessions(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to read destination: %w", err)
		}
		if len(existing) > 0 && !migrateForce {
			return fmt.Errorf("destination already has %d sessions; use --force to copy anyway", len(existing))
		}

		summary, err := storage.MigrateData(ctx, repo, dst)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		color.Green("✓ Migrated to %s", dstCfg.GetBackend())
		fmt.Printf("  Sessions:     %d\n", summary.Sessions)
		fmt.Printf("  Audit events: %d\n", summary.AuditEvents)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "destination backend (sqlite or charm)")
	migrateCmd.Flags().StringVar(&migrateDataDir, "data-dir", "", "destination data directory (sqlite only)")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "preview migration without making changes")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "copy into a destination that already has data")
	_ = migrateCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(migrateCmd)
}
