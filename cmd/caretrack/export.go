// ABOUTME: CLI commands for exporting compliance reports and importing sessions.
// ABOUTME: Supports JSON, YAML, Markdown, and CSV export formats.
package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/caretrack/internal/analytics"
	"github.com/harperreed/caretrack/internal/report"
	"github.com/spf13/cobra"
)

var (
	exportOutput   string
	exportAutoName bool
	exportFilter   analytics.Filter
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export a compliance report",
	Long: `Export a compliance report: overall and per-metric averages, a hospital
breakdown when more than one hospital is included, and every raw session.

FORMATS:

  json       Full JSON report (suitable for backup and 'caretrack import')
  yaml       YAML report (human-readable)
  markdown   Markdown tables (for sharing)
  csv        Raw sessions, one row each (for spreadsheets)

OPTIONS:

  --output, -o   Write to file instead of stdout
  --auto-name    Write to CareTrack_Report[_Hospital]_YYYY-MM-DD.<ext>
  --hospital     Only include one hospital
  --from, --to   Only include sessions in this date range

EXAMPLES:

  caretrack export json -o backup.json
  caretrack export csv --hospital "St. Mary" --auto-name
  caretrack export markdown --from 2025-01-01`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown", "csv"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(args[0])
		if err != nil {
			return err
		}

		load(cmd.Context())
		now := time.Now()
		sessions := analytics.Apply(app.Sessions(), exportFilter)
		r := report.Build(sessions, report.Options{
			HospitalFilter: exportFilter.Hospital,
			PreparedBy:     cfg.Identity(),
			Now:            now,
		})

		var buf bytes.Buffer
		if err := report.Encode(&buf, format, r); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		out := exportOutput
		if exportAutoName {
			out = report.Filename(exportFilter.Hospital, now, format.Ext())
		}
		if out == "" {
			fmt.Print(buf.String())
			return nil
		}
		if err := os.WriteFile(out, buf.Bytes(), 0600); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		color.Green("✓ Exported %d sessions to %s", r.TotalSessions, out)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import sessions from a JSON export",
	Long: `Import sessions from a JSON report written by 'caretrack export json'.

Each session is logged as new: it gets a fresh ID and is stamped with your
name. Sessions go to the pending queue when the store is unreachable.
Invalid sessions are skipped and reported.

EXAMPLES:

  caretrack import backup.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		f, err := os.Open(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		defer f.Close()

		sessions, err := report.ReadSessions(f)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		var logged, queued, skipped int
		for _, s := range sessions {
			res, err := app.Submit(cmd.Context(), s)
			switch {
			case err != nil:
				skipped++
				color.Yellow("⚠ Skipped %s %s: %v", s.Date, s.Hospital, err)
			case res.Pending:
				queued++
			default:
				logged++
			}
		}

		color.Green("✓ Imported from %s", filename)
		fmt.Printf("  %d logged, %d pending, %d skipped\n", logged, queued, skipped)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().BoolVar(&exportAutoName, "auto-name", false, "write to a dated report file in the current directory")
	exportCmd.Flags().StringVar(&exportFilter.Hospital, "hospital", "", "only include this hospital")
	exportCmd.Flags().StringVar(&exportFilter.From, "from", "", "first date included (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportFilter.To, "to", "", "last date included (YYYY-MM-DD)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
