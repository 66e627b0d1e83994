// ABOUTME: Ratio math shared by every compliance view.
// ABOUTME: Percentage, tier bucketing, and null-skipping averages.
package compliance

import (
	"math"

	"github.com/harperreed/caretrack/internal/models"
)

// Tier buckets a percentage for status text and coloring.
type Tier string

const (
	TierOnTarget       Tier = "onTarget"
	TierMonitor        Tier = "monitor"
	TierNeedsAttention Tier = "needsAttention"
)

// Tier thresholds, inclusive lower bounds.
const (
	OnTargetMin = 90
	MonitorMin  = 70
)

// RoundHalfUp rounds to the nearest integer, with .5 going up.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Percentage returns round(100*num/den), or nil when the ratio is undefined.
// A zero or non-finite denominator and a non-finite numerator are undefined.
func Percentage(num, den float64) *int {
	if !finite(num) || !finite(den) || den == 0 {
		return nil
	}
	p := RoundHalfUp(100 * num / den)
	return &p
}

// RatioPercentage returns the percentage for a recorded ratio.
func RatioPercentage(r *models.Ratio) *int {
	if r == nil {
		return nil
	}
	return Percentage(float64(r.Numerator), float64(r.Denominator))
}

// SessionPercentage returns the percentage for one metric on one session.
func SessionPercentage(s *models.Session, id models.MetricID) *int {
	if s == nil {
		return nil
	}
	return RatioPercentage(s.Ratio(id))
}

// TierOf buckets a percentage. A nil percentage has no tier.
func TierOf(p *int) *Tier {
	if p == nil {
		return nil
	}
	t := TierNeedsAttention
	switch {
	case *p >= OnTargetMin:
		t = TierOnTarget
	case *p >= MonitorMin:
		t = TierMonitor
	}
	return &t
}

// Label returns status text for a tier.
func (t Tier) Label() string {
	switch t {
	case TierOnTarget:
		return "On target"
	case TierMonitor:
		return "Monitor"
	case TierNeedsAttention:
		return "Needs attention"
	}
	return string(t)
}

// Average drops nil entries and returns the rounded mean of the rest.
// It returns nil when nothing is left. Missing data is never counted as zero.
func Average(values []*int) *int {
	sum, n := 0, 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	avg := RoundHalfUp(float64(sum) / float64(n))
	return &avg
}

// MetricPercentages lists the percentage of one metric across sessions.
func MetricPercentages(sessions []*models.Session, id models.MetricID) []*int {
	out := make([]*int, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionPercentage(s, id))
	}
	return out
}

// MetricAverage averages one metric across sessions.
func MetricAverage(sessions []*models.Session, id models.MetricID) *int {
	return Average(MetricPercentages(sessions, id))
}

// Overall pools every recorded metric percentage of every session and averages them.
func Overall(sessions []*models.Session) *int {
	var all []*int
	for _, m := range models.Metrics {
		all = append(all, MetricPercentages(sessions, m.ID)...)
	}
	return Average(all)
}

// SessionOverall averages the recorded metrics of a single session.
func SessionOverall(s *models.Session) *int {
	return Overall([]*models.Session{s})
}

// Delta returns a-b, or nil when either side is missing.
func Delta(a, b *int) *int {
	if a == nil || b == nil {
		return nil
	}
	d := *a - *b
	return &d
}

// Int returns a pointer to v. Handy for building expected values.
func Int(v int) *int {
	return &v
}
