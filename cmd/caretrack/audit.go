// ABOUTME: CLI command for reading the audit log.
// ABOUTME: Shows who created, edited, or deleted sessions, newest first.
package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/caretrack/internal/audit"
	"github.com/spf13/cobra"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit log",
	Long: `Show recent creates, edits, and deletes, newest first.

Edits list each changed field as old → new.

EXAMPLES:

  caretrack audit
  caretrack audit -n 100`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := app.AuditLog(cmd.Context(), auditLimit)
		if err != nil {
			return fmt.Errorf("failed to read audit log: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No audit events.")
			return nil
		}

		for _, e := range events {
			fmt.Printf("%s %s %s %s\n",
				faint.Sprint(e.Timestamp.Local().Format("2006-01-02 15:04")),
				actionLabel(e.Action),
				faint.Sprint(shortID(e.SessionID)),
				e.Actor)
			if e.Action == audit.ActionEdit {
				for _, line := range changeLines(e.Details) {
					fmt.Printf("    %s\n", line)
				}
			}
		}
		return nil
	},
}

func actionLabel(a audit.Action) string {
	switch a {
	case audit.ActionCreate:
		return color.GreenString(padRight(string(a), 6))
	case audit.ActionEdit:
		return color.YellowString(padRight(string(a), 6))
	case audit.ActionDelete:
		return color.RedString(padRight(string(a), 6))
	}
	return padRight(string(a), 6)
}

// changeLines renders edit details sorted by field. Details read back from
// a store are decoded JSON, so changes arrive as maps.
func changeLines(details map[string]any) []string {
	fields := make([]string, 0, len(details))
	for f := range details {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		var from, to any
		switch c := details[f].(type) {
		case audit.Change:
			from, to = c.From, c.To
		case map[string]any:
			from, to = c["from"], c["to"]
		default:
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s → %s", f, changeValue(from), changeValue(to)))
	}
	return lines
}

func changeValue(v any) string {
	if v == nil {
		return "—"
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return `""`
	}
	return s
}

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "max number of events")
	rootCmd.AddCommand(auditCmd)
}
