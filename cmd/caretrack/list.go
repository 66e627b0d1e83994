// ABOUTME: CLI command for listing compliance sessions.
// ABOUTME: Supports hospital and date-range filters; marks pending sessions.
package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/harperreed/caretrack/internal/analytics"
	"github.com/harperreed/caretrack/internal/compliance"
	"github.com/spf13/cobra"
)

var (
	listFilter analytics.Filter
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List compliance sessions",
	Long: `List recent sessions, newest first.

OUTPUT FORMAT:

  Each line shows: ID  DATE  HOSPITAL  LOCATION  OVERALL  (NOTES)

  The ID is an 8-character prefix you can use with edit and delete.
  Sessions saved offline show as "pending" until they sync.

EXAMPLES:

  caretrack list                               # Last 20 sessions
  caretrack list --hospital "St. Mary"         # One hospital
  caretrack list --from 2025-01-01 --to 2025-01-31 -n 100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		load(cmd.Context())

		sessions := analytics.Apply(app.Sessions(), listFilter)
		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}
		sort.SliceStable(sessions, func(i, j int) bool {
			if sessions[i].Date != sessions[j].Date {
				return sessions[i].Date > sessions[j].Date
			}
			return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
		})
		if listLimit > 0 && len(sessions) > listLimit {
			sessions = sessions[:listLimit]
		}

		pendingMark := color.New(color.FgYellow)
		for _, s := range sessions {
			id := faint.Sprint(padRight(shortID(s.ID), 8))
			if s.IsPending() {
				id = pendingMark.Sprint(padRight(shortID(s.ID), 8))
			}
			notes := ""
			if s.Notes != "" {
				notes = faint.Sprintf(" (%s)", truncate(s.Notes, 30))
			}
			fmt.Printf("%s %s %s %s %s%s\n",
				id,
				s.Date,
				padRight(truncate(s.Hospital, 24), 24),
				padRight(truncate(s.Location, 16), 16),
				colorPct(compliance.SessionOverall(s)),
				notes)
		}

		if n := app.Pending(); n > 0 {
			fmt.Println()
			color.Yellow("⏳ %d pending", n)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listFilter.Hospital, "hospital", "", "filter by hospital (All for every hospital)")
	listCmd.Flags().StringVar(&listFilter.From, "from", "", "first date included (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listFilter.To, "to", "", "last date included (YYYY-MM-DD)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "max number of results")
	rootCmd.AddCommand(listCmd)
}
