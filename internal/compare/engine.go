package compare

import "benchkeep/internal/history"

// improvementCutoff is the percentage change below which a non-regression is
// reported as an improvement.
const improvementCutoff = -5.0

// NewComparison pairs previous and current. A zero previous value yields a
// ratio of 1.0 rather than dividing by zero.
func NewComparison(previous, current history.Measurement) Comparison {
	ratio := 1.0
	if previous.Value != 0 {
		ratio = current.Value / previous.Value
	}

	return Comparison{
		Name:             current.Name,
		Previous:         previous.Value,
		Current:          current.Value,
		Unit:             current.Unit,
		Ratio:            ratio,
		PercentageChange: (ratio - 1.0) * 100.0,
		IsRegression:     ratio > 1.0,
	}
}

// IsImprovement reports whether c is a meaningful speedup.
func (c Comparison) IsImprovement() bool {
	return !c.IsRegression && c.PercentageChange < improvementCutoff
}

// Compare matches current measurements against the previous run by name.
// A nil previous run makes every current measurement new.
func Compare(current []history.Measurement, previous *history.Run, th Thresholds) Report {
	report := Report{
		Comparisons: []Comparison{},
		Alerts:      []Comparison{},
		Failures:    []Comparison{},
		New:         []history.Measurement{},
		Removed:     []history.Measurement{},
	}

	// Index previous measurements by name; a later duplicate wins
	prevIndex := make(map[string]history.Measurement)
	if previous != nil {
		for _, m := range previous.Measurements {
			prevIndex[m.Name] = m
		}
	}

	currNames := make(map[string]bool, len(current))
	for _, m := range current {
		currNames[m.Name] = true

		prev, ok := prevIndex[m.Name]
		if !ok {
			report.New = append(report.New, m)
			continue
		}

		c := NewComparison(prev, m)
		if c.Ratio >= th.Alert {
			report.Alerts = append(report.Alerts, c)
		}
		if c.Ratio >= th.Fail {
			report.Failures = append(report.Failures, c)
		}
		report.Comparisons = append(report.Comparisons, c)
	}

	if previous != nil {
		for _, m := range previous.Measurements {
			if !currNames[m.Name] {
				report.Removed = append(report.Removed, m)
			}
		}
	}

	return report
}
