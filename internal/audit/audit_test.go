// ABOUTME: Tests for audit diffs and sinks.
// ABOUTME: Covers field-level diffs, summaries, and fan-out error joining.
package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/caretrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSink struct {
	events []Event
	err    error
}

func (r *recordingSink) Record(ctx context.Context, e Event) error {
	r.events = append(r.events, e)
	return r.err
}

func TestDiff(t *testing.T) {
	before := models.NewSession("2025-02-01").
		WithHospital("Mercy").
		WithNotes("old").
		WithRatio(models.MetricMattApplied, 3, 4).
		WithRatio(models.MetricAirSupply, 1, 2)

	after := before.Clone()
	after.Notes = "new"
	after.MattApplied = models.NewRatio(4, 4)
	after.AirSupply = nil
	after.WedgeOffload = models.NewRatio(2, 3)

	got := Diff(before, after)

	assert.Equal(t, map[string]Change{
		"notes":         {From: "old", To: "new"},
		"matt_applied":  {From: "3/4", To: "4/4"},
		"air_supply":    {From: "1/2", To: nil},
		"wedge_offload": {From: nil, To: "2/3"},
	}, got)
}

func TestDiffIdentical(t *testing.T) {
	s := models.NewSession("2025-02-01").WithRatio(models.MetricMattApplied, 1, 1)
	assert.Empty(t, Diff(s, s.Clone()))
	assert.Empty(t, Diff(nil, s))
}

func TestSummary(t *testing.T) {
	s := models.NewSession("2025-02-01").WithHospital("Mercy").WithRatio(models.MetricWedgesInRoom, 5, 6)
	sum := Summary(s)
	assert.Equal(t, "2025-02-01", sum["date"])
	assert.Equal(t, "Mercy", sum["hospital"])
	assert.Equal(t, "5/6", sum["wedges_in_room"])
	_, ok := sum["matt_applied"]
	assert.False(t, ok)
	assert.Nil(t, Summary(nil))
}

func TestMultiRecordsEverywhere(t *testing.T) {
	a := &recordingSink{err: errors.New("a down")}
	b := &recordingSink{}
	m := Multi{a, nil, b}

	err := m.Record(context.Background(), NewEvent(ActionCreate, "nurse", "id-1", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a down")
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.Equal(t, ActionCreate, b.events[0].Action)
	assert.False(t, b.events[0].Timestamp.IsZero())
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	require.NoError(t, sink.Record(context.Background(), NewEvent(ActionDelete, "nurse", "id-9", map[string]any{"date": "2025-02-01"})))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "delete", fields["action"])
	assert.Equal(t, "nurse", fields["actor"])
	assert.Equal(t, "id-9", fields["session_id"])

	assert.NoError(t, Discard.Record(context.Background(), Event{}))
}
