// ABOUTME: Per-metric averages and the cross-tenant benchmark comparison.
// ABOUTME: Every average skips unset metrics instead of counting them as zero.
package analytics

import (
	"github.com/harperreed/caretrack/internal/compliance"
	"github.com/harperreed/caretrack/internal/models"
)

// MetricAverage is one metric's average over a session set.
type MetricAverage struct {
	Metric   models.MetricDefinition `json:"metric"`
	Average  *int                    `json:"average"`
	Tier     *compliance.Tier        `json:"tier,omitempty"`
	Sessions int                     `json:"sessions"`
}

// MetricAverages returns one entry per metric definition, in definition order.
func MetricAverages(sessions []*models.Session) []MetricAverage {
	out := make([]MetricAverage, 0, len(models.Metrics))
	for _, m := range models.Metrics {
		values := compliance.MetricPercentages(sessions, m.ID)
		avg := compliance.Average(values)
		n := 0
		for _, v := range values {
			if v != nil {
				n++
			}
		}
		out = append(out, MetricAverage{
			Metric:   m,
			Average:  avg,
			Tier:     compliance.TierOf(avg),
			Sessions: n,
		})
	}
	return out
}

// Standing says which side of the benchmark a value falls on.
type Standing string

const (
	Ahead  Standing = "ahead"
	Behind Standing = "behind"
	Even   Standing = "even"
)

// StandingOf classifies a delta. A nil delta has no standing.
func StandingOf(delta *int) Standing {
	switch {
	case delta == nil:
		return ""
	case *delta > 0:
		return Ahead
	case *delta < 0:
		return Behind
	}
	return Even
}

// Comparison sets a filtered value against the population benchmark.
type Comparison struct {
	Metric    models.MetricDefinition `json:"metric"`
	Value     *int                    `json:"value"`
	Benchmark *int                    `json:"benchmark"`
	Delta     *int                    `json:"delta"`
	Standing  Standing                `json:"standing,omitempty"`
}

// Benchmark compares each metric average of filtered against population.
// population must be the unfiltered cross-tenant fetch.
func Benchmark(filtered, population []*models.Session) []Comparison {
	out := make([]Comparison, 0, len(models.Metrics))
	for _, m := range models.Metrics {
		out = append(out, compare(m,
			compliance.MetricAverage(filtered, m.ID),
			compliance.MetricAverage(population, m.ID)))
	}
	return out
}

// BenchmarkOverall compares the cross-metric averages.
func BenchmarkOverall(filtered, population []*models.Session) Comparison {
	return compare(models.MetricDefinition{Label: "Overall"},
		compliance.Overall(filtered), compliance.Overall(population))
}

func compare(m models.MetricDefinition, value, benchmark *int) Comparison {
	delta := compliance.Delta(value, benchmark)
	return Comparison{
		Metric:    m,
		Value:     value,
		Benchmark: benchmark,
		Delta:     delta,
		Standing:  StandingOf(delta),
	}
}
