// ABOUTME: CLI command for inspecting the pending-write queue.
// ABOUTME: Lists sessions saved offline in the order they will sync.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:     "queue",
	Aliases: []string{"pending", "q"},
	Short:   "Show sessions waiting to sync",
	Long: `Show sessions that were saved offline and have not reached the store yet.
They sync in the order shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries := app.PendingEntries()
		if app.Degraded() {
			color.Yellow("⚠ Queue storage unavailable; pending sessions live in memory only.")
		}
		if len(entries) == 0 {
			fmt.Println("Nothing pending.")
			return nil
		}

		for i, e := range entries {
			if e.Session == nil {
				continue
			}
			queued := time.UnixMilli(e.QueuedAt).Local().Format("2006-01-02 15:04")
			fmt.Printf("%s %s %s %s %s\n",
				faint.Sprintf("%2d.", i+1),
				faint.Sprint(queued),
				e.Session.Date,
				padRight(truncate(e.Session.Hospital, 24), 24),
				truncate(e.Session.Location, 16))
		}
		fmt.Println()
		color.Yellow("⏳ %d pending", len(entries))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
}
