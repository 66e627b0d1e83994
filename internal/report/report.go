// ABOUTME: Compliance report model built from a session set.
// ABOUTME: Summary, per-metric totals, hospital breakdown, and raw session rows.
package report

import (
	"regexp"
	"sort"
	"time"

	"github.com/harperreed/caretrack/internal/analytics"
	"github.com/harperreed/caretrack/internal/compliance"
	"github.com/harperreed/caretrack/internal/models"
)

const (
	reportVersion = "1.0"
	toolName      = "caretrack"
	title         = "CareTrack — Wound Care Compliance Report"
)

// Options control report metadata.
type Options struct {
	HospitalFilter string
	PreparedBy     string
	Now            time.Time
}

// MetricSummary is one metric's line in the summary.
type MetricSummary struct {
	Metric           models.MetricDefinition `json:"metric" yaml:"metric"`
	Average          *int                    `json:"average" yaml:"average"`
	Tier             *compliance.Tier        `json:"tier,omitempty" yaml:"tier,omitempty"`
	Sessions         int                     `json:"sessions_with_data" yaml:"sessions_with_data"`
	NumeratorTotal   int                     `json:"numerator_total" yaml:"numerator_total"`
	DenominatorTotal int                     `json:"denominator_total" yaml:"denominator_total"`
}

// HospitalSummary is one row of the hospital breakdown.
type HospitalSummary struct {
	Hospital string                   `json:"hospital" yaml:"hospital"`
	Sessions int                      `json:"sessions" yaml:"sessions"`
	Overall  *int                     `json:"overall" yaml:"overall"`
	Averages map[models.MetricID]*int `json:"averages" yaml:"averages"`
}

// Row is one raw session with its computed percentages.
type Row struct {
	models.Session `yaml:",inline"`
	Percentages    map[models.MetricID]*int `json:"percentages" yaml:"percentages"`
	Overall        *int                     `json:"overall" yaml:"overall"`
}

// Report is the full export document.
type Report struct {
	Version        string            `json:"version" yaml:"version"`
	Tool           string            `json:"tool" yaml:"tool"`
	GeneratedAt    time.Time         `json:"generated_at" yaml:"generated_at"`
	PreparedBy     string            `json:"prepared_by,omitempty" yaml:"prepared_by,omitempty"`
	HospitalFilter string            `json:"hospital_filter,omitempty" yaml:"hospital_filter,omitempty"`
	TotalSessions  int               `json:"total_sessions" yaml:"total_sessions"`
	Overall        *int              `json:"overall" yaml:"overall"`
	Metrics        []MetricSummary   `json:"metrics" yaml:"metrics"`
	Hospitals      []HospitalSummary `json:"hospitals,omitempty" yaml:"hospitals,omitempty"`
	Sessions       []Row             `json:"sessions" yaml:"sessions"`
}

// Build computes the report for sessions matching the hospital filter.
func Build(sessions []*models.Session, opts Options) *Report {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	filter := opts.HospitalFilter
	if filter == analytics.AllHospitals {
		filter = ""
	}
	sessions = analytics.Apply(sessions, analytics.Filter{Hospital: filter})

	r := &Report{
		Version:        reportVersion,
		Tool:           toolName,
		GeneratedAt:    now,
		PreparedBy:     opts.PreparedBy,
		HospitalFilter: filter,
		TotalSessions:  len(sessions),
		Overall:        compliance.Overall(sessions),
		Sessions:       make([]Row, 0, len(sessions)),
	}

	for _, avg := range analytics.MetricAverages(sessions) {
		ms := MetricSummary{
			Metric:   avg.Metric,
			Average:  avg.Average,
			Tier:     avg.Tier,
			Sessions: avg.Sessions,
		}
		for _, s := range sessions {
			if ratio := s.Ratio(avg.Metric.ID); ratio != nil {
				ms.NumeratorTotal += ratio.Numerator
				ms.DenominatorTotal += ratio.Denominator
			}
		}
		r.Metrics = append(r.Metrics, ms)
	}

	hospitals := analytics.Hospitals(sessions)
	sort.Strings(hospitals)
	if len(hospitals) > 1 {
		for _, h := range hospitals {
			group := analytics.Apply(sessions, analytics.Filter{Hospital: h})
			hs := HospitalSummary{
				Hospital: h,
				Sessions: len(group),
				Overall:  compliance.Overall(group),
				Averages: make(map[models.MetricID]*int, len(models.Metrics)),
			}
			for _, m := range models.Metrics {
				hs.Averages[m.ID] = compliance.MetricAverage(group, m.ID)
			}
			r.Hospitals = append(r.Hospitals, hs)
		}
	}

	for _, s := range sessions {
		row := Row{
			Session:     *s.Clone(),
			Percentages: make(map[models.MetricID]*int, len(models.Metrics)),
			Overall:     compliance.SessionOverall(s),
		}
		for _, m := range models.Metrics {
			row.Percentages[m.ID] = compliance.SessionPercentage(s, m.ID)
		}
		r.Sessions = append(r.Sessions, row)
	}
	return r
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Filename returns CareTrack_Report[_Hospital]_YYYY-MM-DD.ext.
func Filename(hospitalFilter string, now time.Time, ext string) string {
	slug := ""
	if hospitalFilter != "" && hospitalFilter != analytics.AllHospitals {
		slug = "_" + nonAlnum.ReplaceAllString(hospitalFilter, "_")
	}
	return "CareTrack_Report" + slug + "_" + now.Format(models.DateLayout) + "." + ext
}
