// ABOUTME: Dashboard view combining filtered averages with the benchmark.
// ABOUTME: Shared by the CLI dashboard command and the MCP dashboard tool.
package analytics

import (
	"github.com/harperreed/caretrack/internal/compliance"
	"github.com/harperreed/caretrack/internal/models"
)

// Dashboard is the filtered summary a viewer sees first.
type Dashboard struct {
	Filter           Filter           `json:"filter"`
	Sessions         int              `json:"sessions"`
	Pending          int              `json:"pending"`
	Overall          *int             `json:"overall"`
	Tier             *compliance.Tier `json:"tier,omitempty"`
	Averages         []MetricAverage  `json:"averages"`
	Benchmark        []Comparison     `json:"benchmark,omitempty"`
	BenchmarkOverall *Comparison      `json:"benchmark_overall,omitempty"`
	Hospitals        []string         `json:"hospitals"`
}

// BuildDashboard filters sessions and summarizes them. A nil population
// leaves the benchmark out; pass the unfiltered cross-tenant fetch to include it.
func BuildDashboard(sessions []*models.Session, f Filter, population []*models.Session) Dashboard {
	filtered := Apply(sessions, f)
	d := Dashboard{
		Filter:    f,
		Sessions:  len(filtered),
		Overall:   compliance.Overall(filtered),
		Averages:  MetricAverages(filtered),
		Hospitals: Hospitals(sessions),
	}
	if d.Hospitals == nil {
		d.Hospitals = []string{}
	}
	d.Tier = compliance.TierOf(d.Overall)
	for _, s := range filtered {
		if s.IsPending() {
			d.Pending++
		}
	}
	if population != nil {
		d.Benchmark = Benchmark(filtered, population)
		overall := BenchmarkOverall(filtered, population)
		d.BenchmarkOverall = &overall
	}
	return d
}
