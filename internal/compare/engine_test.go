package compare

import (
	"math"
	"testing"

	"benchkeep/internal/history"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func bench(name string, value float64) history.Measurement {
	return history.Measurement{Name: name, Value: value, Unit: "ns/iter"}
}

func runOf(ms ...history.Measurement) *history.Run {
	return &history.Run{Tool: "cargo", Measurements: ms}
}

var defaultThresholds = Thresholds{Alert: 2.0, Fail: 2.0}

// TestRatioLaw tests that the ratio is current/previous for a non-zero
// previous value and exactly 1.0 otherwise, and that regression means
// ratio > 1.
func TestRatioLaw(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("ratio is cur/prev and regression iff ratio > 1", prop.ForAll(
		func(prev, cur float64) bool {
			c := NewComparison(bench("a", prev), bench("a", cur))

			if c.Ratio != cur/prev {
				return false
			}
			if c.IsRegression != (c.Ratio > 1.0) {
				return false
			}
			return math.Abs(c.PercentageChange-(c.Ratio-1)*100) < 1e-9
		},
		gen.Float64Range(1e-6, 1e9),
		gen.Float64Range(0, 1e9),
	))

	properties.Property("zero previous yields ratio 1.0", prop.ForAll(
		func(cur float64) bool {
			c := NewComparison(bench("a", 0), bench("a", cur))
			return c.Ratio == 1.0 && !c.IsRegression && c.PercentageChange == 0
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}

// TestThresholdMonotonicity tests that failures are a subset of alerts and
// that raising the alert threshold never adds alerts.
func TestThresholdMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	genValues := gen.SliceOfN(8, gen.Float64Range(0, 1000))

	properties.Property("failures subset of alerts, alerts shrink as threshold grows", prop.ForAll(
		func(prevVals, curVals []float64, alert, extra, bump float64) bool {
			var prev, cur []history.Measurement
			for i := range prevVals {
				name := string(rune('a' + i))
				prev = append(prev, bench(name, prevVals[i]))
				cur = append(cur, bench(name, curVals[i]))
			}

			low := Compare(cur, runOf(prev...), Thresholds{Alert: alert, Fail: alert + extra})
			high := Compare(cur, runOf(prev...), Thresholds{Alert: alert + bump, Fail: alert + bump + extra})

			alerted := map[string]bool{}
			for _, c := range low.Alerts {
				alerted[c.Name] = true
			}
			for _, c := range low.Failures {
				if !alerted[c.Name] {
					return false
				}
			}

			if len(high.Alerts) > len(low.Alerts) {
				return false
			}
			for _, c := range high.Alerts {
				if !alerted[c.Name] {
					return false
				}
			}
			return true
		},
		genValues,
		genValues,
		gen.Float64Range(0.1, 5),
		gen.Float64Range(0, 5),
		gen.Float64Range(0, 5),
	))

	properties.TestingRun(t)
}

func TestCompareRegressionAlerts(t *testing.T) {
	assert := assert.New(t)

	report := Compare([]history.Measurement{bench("a", 250)}, runOf(bench("a", 100)), defaultThresholds)

	assert.Len(report.Comparisons, 1)
	c := report.Comparisons[0]
	assert.Equal(2.5, c.Ratio)
	assert.InDelta(150.0, c.PercentageChange, 1e-9)
	assert.True(c.IsRegression)
	assert.Len(report.Alerts, 1)
	assert.True(report.HasAlerts())
	assert.True(report.HasFailures())
}

func TestCompareImprovementDoesNotAlert(t *testing.T) {
	assert := assert.New(t)

	report := Compare([]history.Measurement{bench("a", 50)}, runOf(bench("a", 100)), defaultThresholds)

	c := report.Comparisons[0]
	assert.Equal(0.5, c.Ratio)
	assert.InDelta(-50.0, c.PercentageChange, 1e-9)
	assert.False(c.IsRegression)
	assert.True(c.IsImprovement())
	assert.Empty(report.Alerts)
	assert.Empty(report.Failures)
}

func TestCompareNewAndRemoved(t *testing.T) {
	assert := assert.New(t)

	report := Compare([]history.Measurement{bench("new", 1)}, runOf(bench("old", 1)), defaultThresholds)

	assert.Empty(report.Comparisons)
	assert.Equal([]history.Measurement{bench("new", 1)}, report.New)
	assert.Equal([]history.Measurement{bench("old", 1)}, report.Removed)
}

func TestCompareWithoutPrevious(t *testing.T) {
	assert := assert.New(t)

	cur := []history.Measurement{bench("b", 1), bench("a", 2)}
	report := Compare(cur, nil, defaultThresholds)

	assert.Equal(cur, report.New)
	assert.Empty(report.Comparisons)
	assert.Empty(report.Removed)
	assert.Empty(report.Alerts)
}

func TestCompareKeepsInputOrder(t *testing.T) {
	assert := assert.New(t)

	prev := runOf(bench("z", 1), bench("gone2", 1), bench("y", 1), bench("gone1", 1))
	cur := []history.Measurement{bench("y", 3), bench("n2", 1), bench("z", 3), bench("n1", 1)}

	report := Compare(cur, prev, defaultThresholds)

	var names []string
	for _, c := range report.Comparisons {
		names = append(names, c.Name)
	}
	assert.Equal([]string{"y", "z"}, names)
	assert.Equal("n2", report.New[0].Name)
	assert.Equal("n1", report.New[1].Name)
	assert.Equal("gone2", report.Removed[0].Name)
	assert.Equal("gone1", report.Removed[1].Name)
}

func TestCompareAlertWithoutFailure(t *testing.T) {
	assert := assert.New(t)

	report := Compare([]history.Measurement{bench("a", 250)}, runOf(bench("a", 100)), Thresholds{Alert: 2.0, Fail: 3.0})
	assert.True(report.HasAlerts())
	assert.False(report.HasFailures())

	// Exactly at the threshold counts
	report = Compare([]history.Measurement{bench("a", 300)}, runOf(bench("a", 100)), Thresholds{Alert: 2.0, Fail: 3.0})
	assert.True(report.HasFailures())
}

func TestCompareZeroPrevious(t *testing.T) {
	report := Compare([]history.Measurement{bench("a", 500)}, runOf(bench("a", 0)), Thresholds{Alert: 1.0, Fail: 1.0})
	assert.Equal(t, 1.0, report.Comparisons[0].Ratio)

	// Ratio 1.0 meets an alert threshold of exactly 100%
	assert.True(t, report.HasAlerts())
}
