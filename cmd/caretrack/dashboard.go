// ABOUTME: CLI commands for the dashboard, month-over-month trends, and leaderboard.
// ABOUTME: All three read the live set, which includes pending sessions.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/caretrack/internal/analytics"
	"github.com/harperreed/caretrack/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dashFilter analytics.Filter

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash"},
	Short:   "Show compliance averages and the benchmark",
	Long: `Show per-metric compliance averages for the filtered sessions, each with
its tier, and compare them against the average across every hospital.

TIERS:

  90% and up   on target
  70-89%       monitor
  below 70%    needs attention

Metrics with no recorded data show a dash and don't pull averages down.

EXAMPLES:

  caretrack dashboard
  caretrack dashboard --hospital "St. Mary" --from 2025-01-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		load(ctx)

		var population []*models.Session
		if app.Online() {
			p, err := app.BenchmarkPopulation(ctx)
			if err != nil {
				logger.Warn("benchmark unavailable", zap.Error(err))
			} else {
				population = p
			}
		}

		d := analytics.BuildDashboard(app.Sessions(), dashFilter, population)
		if d.Sessions == 0 {
			fmt.Println("No sessions match these filters.")
			return nil
		}

		fmt.Printf("%s  %s", color.New(color.Bold).Sprint("Overall"), colorPct(d.Overall))
		if d.Tier != nil {
			fmt.Printf(" %s", faint.Sprint(d.Tier.Label()))
		}
		fmt.Printf("  %s\n\n", faint.Sprintf("%d sessions", d.Sessions))

		for i, avg := range d.Averages {
			line := fmt.Sprintf("  %s %s %s",
				padRight(avg.Metric.Label, 26),
				padRight(colorPct(avg.Average), 14),
				faint.Sprintf("(%d)", avg.Sessions))
			if d.Benchmark != nil {
				b := d.Benchmark[i]
				line += fmt.Sprintf("  vs %s %s", pct(b.Benchmark), signed(b.Delta))
			}
			fmt.Println(line)
		}

		if d.BenchmarkOverall != nil {
			fmt.Printf("\n  %s %s %s\n",
				padRight("Benchmark (all hospitals)", 26),
				pct(d.BenchmarkOverall.Benchmark),
				standingText(d.BenchmarkOverall.Standing))
		} else {
			fmt.Println()
			faint.Println("  Benchmark unavailable while offline.")
		}
		if d.Pending > 0 {
			color.Yellow("\n⏳ %d pending sessions included", d.Pending)
		}
		return nil
	},
}

func standingText(s analytics.Standing) string {
	switch s {
	case analytics.Ahead:
		return color.GreenString("ahead")
	case analytics.Behind:
		return color.RedString("behind")
	case analytics.Even:
		return "even"
	}
	return ""
}

var trendsHospital string

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Compare this month with last month",
	Long: `Compare compliance for the current calendar month with the previous one,
overall and per metric.

EXAMPLES:

  caretrack trends
  caretrack trends --hospital "St. Mary"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		load(cmd.Context())
		sessions := analytics.Apply(app.Sessions(), analytics.Filter{Hospital: trendsHospital})
		mom := analytics.MonthOverMonth(sessions, time.Now())
		if !mom.HasData {
			fmt.Println("No sessions this month or last month.")
			return nil
		}

		fmt.Printf("%s  %s → %s  %s\n\n",
			color.New(color.Bold).Sprint("Overall"),
			pct(mom.Previous), colorPct(mom.Current), signed(mom.Delta))
		fmt.Printf("  %s %s %s\n",
			padRight("", 26),
			padRight(mom.PreviousMonth, 8),
			mom.CurrentMonth)
		for _, m := range mom.Metrics {
			fmt.Printf("  %s %s %s %s\n",
				padRight(m.Metric.Label, 26),
				padRight(pct(m.Previous), 8),
				padRight(colorPct(m.Current), 16),
				signed(m.Delta))
		}
		fmt.Printf("\n  %s\n", faint.Sprintf("%d sessions last month, %d this month", mom.PreviousSessions, mom.CurrentSessions))
		return nil
	},
}

var (
	boardBy     string
	boardFilter analytics.Filter
)

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"board"},
	Short:   "Rank hospitals or locations",
	Long: `Rank hospitals or locations by overall compliance.

The trend column compares the average of the three most recent sessions
with the three before them. Groups with no recorded data rank last.

EXAMPLES:

  caretrack leaderboard
  caretrack leaderboard --by location --from 2025-01-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		by := analytics.GroupBy(boardBy)
		if by != analytics.ByHospital && by != analytics.ByLocation {
			return fmt.Errorf("unknown grouping: %s (use hospital or location)", boardBy)
		}

		load(cmd.Context())
		board := analytics.Leaderboard(analytics.Apply(app.Sessions(), boardFilter), by)
		if len(board.Groups) == 0 {
			fmt.Println("No sessions to rank.")
			return nil
		}

		for i, g := range board.Groups {
			fmt.Printf("%s %s %s %s %s\n",
				faint.Sprintf("%2d.", i+1),
				padRight(truncate(g.Key, 36), 36),
				padRight(colorPct(g.Score), 14),
				padRight(signed(g.Trend), 12),
				faint.Sprintf("%d sessions", g.Sessions))
		}

		if len(board.NeedsAttention) > 0 {
			fmt.Println()
			color.Red("Needs attention:")
			for _, g := range board.NeedsAttention {
				fmt.Printf("  %s %s\n", g.Key, pct(g.Score))
			}
		}
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashFilter.Hospital, "hospital", analytics.AllHospitals, "hospital to show (All for every hospital)")
	dashboardCmd.Flags().StringVar(&dashFilter.From, "from", "", "first date included (YYYY-MM-DD)")
	dashboardCmd.Flags().StringVar(&dashFilter.To, "to", "", "last date included (YYYY-MM-DD)")

	trendsCmd.Flags().StringVar(&trendsHospital, "hospital", analytics.AllHospitals, "hospital to show (All for every hospital)")

	leaderboardCmd.Flags().StringVar(&boardBy, "by", string(analytics.ByHospital), "group by hospital or location")
	leaderboardCmd.Flags().StringVar(&boardFilter.From, "from", "", "first date included (YYYY-MM-DD)")
	leaderboardCmd.Flags().StringVar(&boardFilter.To, "to", "", "last date included (YYYY-MM-DD)")

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(trendsCmd)
	rootCmd.AddCommand(leaderboardCmd)
}
