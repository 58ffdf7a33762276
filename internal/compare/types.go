package compare

import "benchkeep/internal/history"

// Comparison is a matched pair of measurements sharing a name.
type Comparison struct {
	Name             string  `json:"name"`
	Previous         float64 `json:"previous"`
	Current          float64 `json:"current"`
	Unit             string  `json:"unit"`
	Ratio            float64 `json:"ratio"`             // current / previous, 1.0 when previous is zero
	PercentageChange float64 `json:"percentage_change"` // (ratio - 1) * 100
	IsRegression     bool    `json:"is_regression"`     // ratio > 1, higher is slower
}

// Thresholds are regression ratios at which a comparison alerts or fails.
type Thresholds struct {
	Alert float64 `json:"alert"`
	Fail  float64 `json:"fail"`
}

// Report is the outcome of comparing a set of measurements against the
// previous run. Every slice preserves the order of its input sequence.
type Report struct {
	Comparisons []Comparison          `json:"comparisons"`
	Alerts      []Comparison          `json:"alerts"`
	Failures    []Comparison          `json:"failures"`
	New         []history.Measurement `json:"new_benchmarks"`
	Removed     []history.Measurement `json:"removed_benchmarks"`
}

// HasAlerts reports whether any comparison crossed the alert threshold.
func (r Report) HasAlerts() bool { return len(r.Alerts) > 0 }

// HasFailures reports whether any comparison crossed the fail threshold.
func (r Report) HasFailures() bool { return len(r.Failures) > 0 }

// Empty is true when there is nothing to show: no matched pairs and no new
// measurements.
func (r Report) Empty() bool { return len(r.Comparisons) == 0 && len(r.New) == 0 }
