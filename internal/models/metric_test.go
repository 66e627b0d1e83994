// ABOUTME: Tests for MetricDefinition and the fixed metric list.
// ABOUTME: Validates ids, order, and lookup helpers.
package models

import (
	"testing"
)

func TestMetricsFixedOrder(t *testing.T) {
	want := []MetricID{
		MetricMattApplied, MetricWedgesApplied, MetricTurningCriteria,
		MetricMattProper, MetricWedgesInRoom, MetricWedgeOffload, MetricAirSupply,
	}
	if len(Metrics) != len(want) {
		t.Fatalf("len(Metrics) = %d, want %d", len(Metrics), len(want))
	}
	for i, id := range want {
		if Metrics[i].ID != id {
			t.Errorf("Metrics[%d].ID = %s, want %s", i, Metrics[i].ID, id)
		}
		if Metrics[i].Label == "" || Metrics[i].Description == "" {
			t.Errorf("metric %s missing label or description", id)
		}
	}
}

func TestLookupMetric(t *testing.T) {
	tests := []struct {
		input     string
		wantOK    bool
		wantLabel string
	}{
		{"matt_applied", true, "MATT Applied"},
		{"wedge_offload", true, "Proper Wedge Offloading"},
		{"air_supply", true, "Air Supply in Room"},
		{"matt_applied_num", false, ""},
		{"", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			def, ok := LookupMetric(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("LookupMetric(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if def.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", def.Label, tt.wantLabel)
			}
			if IsValidMetricID(tt.input) != tt.wantOK {
				t.Errorf("IsValidMetricID(%q) disagrees with LookupMetric", tt.input)
			}
		})
	}
}

func TestMetricIDs(t *testing.T) {
	ids := MetricIDs()
	if len(ids) != 7 {
		t.Fatalf("expected 7 ids, got %d", len(ids))
	}
	if ids[0] != "matt_applied" || ids[6] != "air_supply" {
		t.Errorf("unexpected order: %v", ids)
	}
}
