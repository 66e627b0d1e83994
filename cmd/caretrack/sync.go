// ABOUTME: CLI commands for pushing pending sessions and reporting sync state.
// ABOUTME: Supports run, status, and link (Charm backend) operations.
package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/fatih/color"
	"github.com/harperreed/caretrack/internal/config"
	"github.com/harperreed/caretrack/internal/sync"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"s"},
	Short:   "Sync pending sessions to the store",
	Long: `Push sessions saved offline to the remote store.

Sessions sync oldest first. A session that fails stays queued and is
retried on the next pass; the others still go through.

COMMANDS:

  run       Push pending sessions now
  status    Show pending count and the last pass
  link      Link this device to Charm (charm backend only)

'caretrack watch' runs a sync pass automatically whenever the connection
comes back.`,
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Push pending sessions now",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.Online() {
			return fmt.Errorf("offline: %d sessions stay pending", app.Pending())
		}

		res, err := app.Sync(cmd.Context())
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		switch {
		case res.Failed > 0:
			color.Yellow("⚠ %s", res.Message())
		default:
			color.Green("✓ %s", res.Message())
		}
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := sync.LoadState(sync.StatePath(cfg.GetDataDir()))
		if err != nil {
			return fmt.Errorf("failed to load sync state: %w", err)
		}

		fmt.Printf("Backend:   %s\n", cfg.GetBackend())
		fmt.Printf("Device ID: %s\n", st.DeviceID)
		if app.Online() {
			fmt.Printf("Network:   %s\n", color.GreenString("online"))
		} else {
			fmt.Printf("Network:   %s\n", color.YellowString("offline"))
		}
		fmt.Printf("Pending:   %d\n", app.Pending())
		if app.Degraded() {
			color.Yellow("Queue:     in memory only")
		}

		if st.LastSyncAt.IsZero() {
			fmt.Println("Last sync: never")
		} else {
			fmt.Printf("Last sync: %s (%s)\n", st.LastSyncAt.Local().Format("2006-01-02 15:04"), st.LastResult.Message())
		}
		return nil
	},
}

var syncLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link this device to Charm",
	Long: `Link this device to your Charm account so the charm backend can reach
the shared store. Requires the charm CLI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.GetBackend() != config.BackendCharm {
			return fmt.Errorf("link only applies to the charm backend (current: %s)", cfg.GetBackend())
		}

		charmCmd := exec.Command("charm", "link")
		charmCmd.Stdin = os.Stdin
		charmCmd.Stdout = os.Stdout
		charmCmd.Stderr = os.Stderr

		if err := charmCmd.Run(); err != nil {
			return fmt.Errorf("failed to link: %w\n\nMake sure 'charm' CLI is installed: go install github.com/charmbracelet/charm@latest", err)
		}

		color.Green("\n✓ Device linked to Charm")
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncRunCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncLinkCmd)
	rootCmd.AddCommand(syncCmd)
}
