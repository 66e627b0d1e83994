// ABOUTME: MetricDefinition model and the fixed list of compliance metrics.
// ABOUTME: Defines the 7 wound-care ratios every aggregation iterates over.
package models

// MetricID identifies one of the fixed compliance metrics.
type MetricID string

const (
	MetricMattApplied     MetricID = "matt_applied"
	MetricWedgesApplied   MetricID = "wedges_applied"
	MetricTurningCriteria MetricID = "turning_criteria"
	MetricMattProper      MetricID = "matt_proper"
	MetricWedgesInRoom    MetricID = "wedges_in_room"
	MetricWedgeOffload    MetricID = "wedge_offload"
	MetricAirSupply       MetricID = "air_supply"
)

// MetricDefinition describes a compliance metric for display.
type MetricDefinition struct {
	ID          MetricID `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
}

// Metrics is the ordered list of compliance metrics. It never changes at runtime.
var Metrics = []MetricDefinition{
	{MetricMattApplied, "MATT Applied", "Qualifying patients that had MATT applied"},
	{MetricWedgesApplied, "Wedges Applied", "Qualifying patients that had wedges applied"},
	{MetricTurningCriteria, "Turning & Repositioning", "Patients that met criteria for turning and repositioning"},
	{MetricMattProper, "MATT Applied Properly", "Patients that had MATT applied properly"},
	{MetricWedgesInRoom, "Wedges in Room", "Patients that had wedges in room"},
	{MetricWedgeOffload, "Proper Wedge Offloading", "Patients properly offloaded with wedges"},
	{MetricAirSupply, "Air Supply in Room", "Qualifying patients that had air supply in room"},
}

// IsValidMetricID checks if a string names one of the compliance metrics.
func IsValidMetricID(s string) bool {
	_, ok := LookupMetric(s)
	return ok
}

// LookupMetric returns the definition for a metric id.
func LookupMetric(s string) (MetricDefinition, bool) {
	for _, m := range Metrics {
		if string(m.ID) == s {
			return m, true
		}
	}
	return MetricDefinition{}, false
}

// MetricIDs returns the metric ids in definition order.
func MetricIDs() []string {
	ids := make([]string, 0, len(Metrics))
	for _, m := range Metrics {
		ids = append(ids, string(m.ID))
	}
	return ids
}
