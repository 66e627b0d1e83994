// ABOUTME: Formatting and parsing helpers shared by caretrack commands.
// ABOUTME: Percent/tier rendering, metric flag parsing, and column padding.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/caretrack/internal/compliance"
	"github.com/harperreed/caretrack/internal/models"
)

var faint = color.New(color.Faint)

// parseMetric parses a --metric flag value of the form id=num/den.
func parseMetric(s string) (models.MetricID, *models.Ratio, error) {
	id, ratio, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("invalid metric %q: want id=num/den", s)
	}
	id = strings.TrimSpace(id)
	if !models.IsValidMetricID(id) {
		return "", nil, fmt.Errorf("unknown metric: %s\nValid metrics: %s", id, strings.Join(models.MetricIDs(), ", "))
	}
	r, err := models.ParseRatio(ratio)
	if err != nil {
		return "", nil, err
	}
	return models.MetricID(id), r, nil
}

// applyMetrics sets every --metric value on the session.
func applyMetrics(s *models.Session, values []string) error {
	for _, v := range values {
		id, r, err := parseMetric(v)
		if err != nil {
			return err
		}
		s.SetRatio(id, r)
	}
	return nil
}

// parseDate accepts YYYY-MM-DD, "today", or "yesterday".
func parseDate(s string, now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return now.Format(models.DateLayout), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(models.DateLayout), nil
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t.Format(models.DateLayout), nil
}

// pct renders a percentage, or a dash when there is no data.
func pct(p *int) string {
	if p == nil {
		return "—"
	}
	return fmt.Sprintf("%d%%", *p)
}

// tierColor picks the display color for a tier.
func tierColor(t *compliance.Tier) *color.Color {
	if t == nil {
		return faint
	}
	switch *t {
	case compliance.TierOnTarget:
		return color.New(color.FgGreen)
	case compliance.TierMonitor:
		return color.New(color.FgYellow)
	}
	return color.New(color.FgRed)
}

// colorPct renders a percentage in its tier color.
func colorPct(p *int) string {
	return tierColor(compliance.TierOf(p)).Sprint(pct(p))
}

// signed renders a delta with an explicit sign.
func signed(d *int) string {
	switch {
	case d == nil:
		return "—"
	case *d > 0:
		return color.GreenString("+%d", *d)
	case *d < 0:
		return color.RedString("%d", *d)
	}
	return "0"
}

func shortID(id string) string {
	if models.IsTemporaryID(id) {
		return "pending"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
