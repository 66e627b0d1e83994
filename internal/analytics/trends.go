// ABOUTME: Month-over-month comparison and per-session time series.
// ABOUTME: Months come from the session date, not the submission timestamp.
package analytics

import (
	"sort"
	"time"

	"github.com/harperreed/caretrack/internal/compliance"
	"github.com/harperreed/caretrack/internal/models"
)

const monthLayout = "2006-01"

// MetricDelta is one metric's month-over-month movement.
type MetricDelta struct {
	Metric   models.MetricDefinition `json:"metric"`
	Current  *int                    `json:"current"`
	Previous *int                    `json:"previous"`
	Delta    *int                    `json:"delta"`
}

// MonthComparison compares the calendar month containing now with the one before.
type MonthComparison struct {
	CurrentMonth     string        `json:"current_month"`
	PreviousMonth    string        `json:"previous_month"`
	Current          *int          `json:"current"`
	Previous         *int          `json:"previous"`
	Delta            *int          `json:"delta"`
	CurrentSessions  int           `json:"current_sessions"`
	PreviousSessions int           `json:"previous_sessions"`
	Metrics          []MetricDelta `json:"metrics"`
	HasData          bool          `json:"has_data"`
}

// MonthOverMonth partitions sessions by calendar month of their date.
func MonthOverMonth(sessions []*models.Session, now time.Time) MonthComparison {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	cur := first.Format(monthLayout)
	prev := first.AddDate(0, -1, 0).Format(monthLayout)

	var current, previous []*models.Session
	for _, s := range sessions {
		if s == nil || len(s.Date) < len(monthLayout) {
			continue
		}
		switch s.Date[:len(monthLayout)] {
		case cur:
			current = append(current, s)
		case prev:
			previous = append(previous, s)
		}
	}

	mc := MonthComparison{
		CurrentMonth:     cur,
		PreviousMonth:    prev,
		Current:          compliance.Overall(current),
		Previous:         compliance.Overall(previous),
		CurrentSessions:  len(current),
		PreviousSessions: len(previous),
		HasData:          len(current) > 0 || len(previous) > 0,
	}
	mc.Delta = compliance.Delta(mc.Current, mc.Previous)

	for _, m := range models.Metrics {
		c := compliance.MetricAverage(current, m.ID)
		p := compliance.MetricAverage(previous, m.ID)
		mc.Metrics = append(mc.Metrics, MetricDelta{
			Metric:   m,
			Current:  c,
			Previous: p,
			Delta:    compliance.Delta(c, p),
		})
	}
	return mc
}

// Point is one session's percentages, for charting compliance over time.
type Point struct {
	Date      string                   `json:"date"`
	SessionID string                   `json:"session_id"`
	Values    map[models.MetricID]*int `json:"values"`
	Overall   *int                     `json:"overall"`
}

// Series returns one point per session, ordered by date then creation time.
func Series(sessions []*models.Session) []Point {
	ordered := byRecency(sessions)
	out := make([]Point, 0, len(ordered))
	for _, s := range ordered {
		p := Point{
			Date:      s.Date,
			SessionID: s.ID,
			Values:    make(map[models.MetricID]*int, len(models.Metrics)),
			Overall:   compliance.SessionOverall(s),
		}
		for _, m := range models.Metrics {
			p.Values[m.ID] = compliance.SessionPercentage(s, m.ID)
		}
		out = append(out, p)
	}
	return out
}

// byRecency returns a copy ordered oldest first by date, then creation time.
func byRecency(sessions []*models.Session) []*models.Session {
	out := make([]*models.Session, 0, len(sessions))
	for _, s := range sessions {
		if s != nil {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
