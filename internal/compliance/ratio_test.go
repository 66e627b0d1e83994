// ABOUTME: Tests for percentage, tier, and average helpers.
// ABOUTME: Pins the round-half-up rule and the skip-missing-data rule.
package compliance

import (
	"math"
	"testing"

	"github.com/harperreed/caretrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name     string
		num, den float64
		want     *int
	}{
		{"simple", 3, 4, Int(75)},
		{"full", 9, 9, Int(100)},
		{"zero numerator", 0, 5, Int(0)},
		{"zero denominator", 3, 0, nil},
		{"both zero", 0, 0, nil},
		{"half rounds up", 179, 200, Int(90)},
		{"eighth rounds up", 1, 8, Int(13)},
		{"below half rounds down", 2, 3, Int(67)},
		{"third", 1, 3, Int(33)},
		{"numerator above denominator", 11, 10, Int(110)},
		{"nan numerator", math.NaN(), 4, nil},
		{"inf numerator", math.Inf(1), 4, nil},
		{"nan denominator", 1, math.NaN(), nil},
		{"inf denominator", 1, math.Inf(-1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.num, tt.den))
		})
	}
}

func TestPercentageMatchesRoundedRatio(t *testing.T) {
	for d := 1; d <= 40; d++ {
		for n := 0; n <= d; n++ {
			got := Percentage(float64(n), float64(d))
			require.NotNil(t, got, "Percentage(%d, %d)", n, d)
			want := int(math.Floor(100*float64(n)/float64(d) + 0.5))
			assert.Equal(t, want, *got, "Percentage(%d, %d)", n, d)
		}
	}
}

func TestRatioPercentage(t *testing.T) {
	assert.Nil(t, RatioPercentage(nil))
	assert.Nil(t, RatioPercentage(models.NewRatio(0, 0)))
	assert.Equal(t, Int(50), RatioPercentage(models.NewRatio(1, 2)))

	s := models.NewSession("2025-01-01").WithRatio(models.MetricAirSupply, 7, 10)
	assert.Equal(t, Int(70), SessionPercentage(s, models.MetricAirSupply))
	assert.Nil(t, SessionPercentage(s, models.MetricMattApplied))
	assert.Nil(t, SessionPercentage(nil, models.MetricAirSupply))
}

func TestTierOf(t *testing.T) {
	tests := []struct {
		input *int
		want  *Tier
	}{
		{nil, nil},
		{Int(100), tierPtr(TierOnTarget)},
		{Int(90), tierPtr(TierOnTarget)},
		{Int(89), tierPtr(TierMonitor)},
		{Int(70), tierPtr(TierMonitor)},
		{Int(69), tierPtr(TierNeedsAttention)},
		{Int(0), tierPtr(TierNeedsAttention)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierOf(tt.input))
	}

	// 89.5% rounds to 90 and lands on target.
	assert.Equal(t, tierPtr(TierOnTarget), TierOf(Percentage(179, 200)))
}

func TestTierLabel(t *testing.T) {
	assert.Equal(t, "On target", TierOnTarget.Label())
	assert.Equal(t, "Monitor", TierMonitor.Label())
	assert.Equal(t, "Needs attention", TierNeedsAttention.Label())
}

func TestAverage(t *testing.T) {
	assert.Equal(t, Int(60), Average([]*int{Int(50), nil, Int(70)}))
	assert.Equal(t, Average([]*int{Int(50), Int(70)}), Average([]*int{Int(50), nil, Int(70)}))
	assert.Nil(t, Average(nil))
	assert.Nil(t, Average([]*int{}))
	assert.Nil(t, Average([]*int{nil, nil}))
	assert.Equal(t, Int(0), Average([]*int{Int(0)}))
	assert.Equal(t, Int(90), Average([]*int{Int(89), Int(90)}), "89.5 rounds up")
	assert.Equal(t, Int(67), Average([]*int{Int(100), Int(50), Int(50)}))
}

func TestOverall(t *testing.T) {
	a := models.NewSession("2025-01-01").
		WithRatio(models.MetricMattApplied, 1, 2).
		WithRatio(models.MetricAirSupply, 0, 0)
	b := models.NewSession("2025-01-02").
		WithRatio(models.MetricWedgesApplied, 4, 4).
		WithRatio(models.MetricWedgeOffload, 4, 5)

	assert.Equal(t, Int(50), SessionOverall(a))
	// pooled: 50, 100, 80
	assert.Equal(t, Int(77), Overall([]*models.Session{a, b}))
	assert.Nil(t, Overall(nil))
	assert.Nil(t, Overall([]*models.Session{models.NewSession("2025-01-03")}))
}

func TestDelta(t *testing.T) {
	assert.Equal(t, Int(5), Delta(Int(80), Int(75)))
	assert.Equal(t, Int(-5), Delta(Int(75), Int(80)))
	assert.Nil(t, Delta(nil, Int(1)))
	assert.Nil(t, Delta(Int(1), nil))
}

func tierPtr(t Tier) *Tier {
	return &t
}
