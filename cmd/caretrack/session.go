// ABOUTME: CLI commands for logging, editing, and deleting sessions.
// ABOUTME: Logging falls back to the pending queue when the store is unreachable.
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/caretrack/internal/models"
	"github.com/harperreed/caretrack/internal/tracker"
	"github.com/spf13/cobra"
)

// sessionFlags holds the fields shared by log and edit.
type sessionFlags struct {
	date     string
	hospital string
	location string
	protocol string
	notes    string
	metrics  []string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "session date (YYYY-MM-DD, today, yesterday)")
	cmd.Flags().StringVar(&f.hospital, "hospital", "", "hospital name")
	cmd.Flags().StringVar(&f.location, "location", "", "unit or location")
	cmd.Flags().StringVar(&f.protocol, "protocol", "", "protocol for use")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
	cmd.Flags().StringArrayVarP(&f.metrics, "metric", "m", nil, "metric ratio as id=num/den (repeatable)")
}

// apply copies the flags the user set onto s.
func (f *sessionFlags) apply(cmd *cobra.Command, s *models.Session, now time.Time) error {
	changed := cmd.Flags().Changed
	if changed("date") || s.Date == "" {
		d, err := parseDate(f.date, now)
		if err != nil {
			return err
		}
		s.Date = d
	}
	if changed("hospital") {
		s.Hospital = f.hospital
	}
	if changed("location") {
		s.Location = f.location
	}
	if changed("protocol") {
		s.ProtocolForUse = f.protocol
	}
	if changed("notes") {
		s.Notes = f.notes
	}
	return applyMetrics(s, f.metrics)
}

var logFlags sessionFlags

var logCmd = &cobra.Command{
	Use:     "log",
	Aliases: []string{"add", "a"},
	Short:   "Log a compliance session",
	Long: `Log a wound-care compliance session.

Each --metric is a ratio of patients meeting the criterion over qualifying
patients. Metrics you leave out are recorded as no data, not as zero.

METRICS:

  matt_applied      MATT Applied
  wedges_applied    Wedges Applied
  turning_criteria  Turning & Repositioning
  matt_proper       MATT Applied Properly
  wedges_in_room    Wedges in Room
  wedge_offload     Proper Wedge Offloading
  air_supply        Air Supply in Room

If the store can't be reached the session is saved locally, shown as
pending, and synced later.

EXAMPLES:

  caretrack log --hospital "St. Mary" --location ICU -m matt_applied=8/10
  caretrack log -d 2025-01-31 -m wedges_applied=3/4 -m air_supply=4/4`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &models.Session{}
		if err := logFlags.apply(cmd, s, time.Now()); err != nil {
			return err
		}

		res, err := app.Submit(cmd.Context(), s)
		if err != nil {
			return fmt.Errorf("failed to log session: %w", err)
		}

		if res.Pending {
			color.Yellow("⏳ Saved offline")
			fmt.Printf("  %s %s  %d pending, will sync when the store is reachable\n",
				faint.Sprint("pending"), res.Session.Date, app.Pending())
			return nil
		}
		color.Green("✓ Logged session")
		fmt.Printf("  %s %s %s\n",
			faint.Sprint(shortID(res.Session.ID)),
			res.Session.Date,
			res.Session.Hospital)
		return nil
	},
}

var editFlags sessionFlags

var editCmd = &cobra.Command{
	Use:     "edit <id>",
	Aliases: []string{"e"},
	Short:   "Edit a synced session",
	Long: `Edit a session by ID or ID prefix. Only the flags you pass change.

Pending sessions can't be edited until they sync, and editing needs a
connection to the store. The last edit wins.

EXAMPLES:

  caretrack edit 3fa85f64 -m matt_applied=9/10
  caretrack edit 3fa85f64 --notes "re-audited"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		current, err := app.Get(ctx, args[0])
		if err != nil {
			return editError(err)
		}
		if current.IsPending() {
			return editError(tracker.ErrPending)
		}

		updated := current.Clone()
		if err := editFlags.apply(cmd, updated, time.Now()); err != nil {
			return err
		}

		after, err := app.Edit(ctx, current.ID, updated)
		if err != nil {
			return editError(err)
		}
		color.Green("✓ Updated session %s", shortID(after.ID))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm", "d"},
	Short:   "Delete a synced session",
	Long: `Delete a session by ID or ID prefix. Needs a connection to the store.

EXAMPLES:

  caretrack delete 3fa85f64`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Delete(cmd.Context(), args[0]); err != nil {
			return editError(err)
		}
		color.Green("✓ Deleted session %s", args[0])
		return nil
	},
}

// editError explains the write-path sentinels in user terms.
func editError(err error) error {
	switch {
	case errors.Is(err, tracker.ErrPending):
		return fmt.Errorf("this session is still pending; run 'caretrack sync run' once you're online, then edit it")
	case errors.Is(err, tracker.ErrOffline):
		return fmt.Errorf("can't change synced sessions while offline")
	}
	return err
}

func init() {
	logFlags.register(logCmd)
	editFlags.register(editCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
}
