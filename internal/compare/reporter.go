package compare

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Summary renders the report as a markdown document.
func (r Report) Summary() string {
	if r.Empty() {
		return "No benchmark comparisons available."
	}

	var sb strings.Builder
	sb.WriteString("## Benchmark Comparison Report\n\n")

	if len(r.Comparisons) > 0 {
		sb.WriteString("### Comparisons\n\n")
		sb.WriteString("| Benchmark | Previous | Current | Change |\n")
		sb.WriteString("|-----------|----------|---------|--------|\n")
		for _, c := range r.Comparisons {
			sb.WriteString(fmt.Sprintf("| %s | %.2f %s | %.2f %s | %s %s |\n",
				c.Name, c.Previous, c.Unit, c.Current, c.Unit, indicator(c), signedPercent(c.PercentageChange, 2)))
		}
		sb.WriteString("\n")
	}

	if len(r.New) > 0 {
		sb.WriteString("### New Benchmarks\n\n")
		for _, m := range r.New {
			sb.WriteString(fmt.Sprintf("- **%s**: %.2f %s\n", m.Name, m.Value, m.Unit))
		}
		sb.WriteString("\n")
	}

	if len(r.Removed) > 0 {
		sb.WriteString("### Removed Benchmarks\n\n")
		for _, m := range r.Removed {
			sb.WriteString(fmt.Sprintf("- **%s** (was %.2f %s)\n", m.Name, m.Value, m.Unit))
		}
		sb.WriteString("\n")
	}

	if len(r.Alerts) > 0 {
		sb.WriteString("### ⚠️ Performance Alerts\n\n")
		for _, c := range r.Alerts {
			sb.WriteString(fmt.Sprintf("- **%s**: %.2f%% regression (%.2f %s → %.2f %s)\n",
				c.Name, c.PercentageChange, c.Previous, c.Unit, c.Current, c.Unit))
		}
		sb.WriteString("\n")
	}

	if len(r.Failures) > 0 {
		sb.WriteString("### 🚨 Critical Regressions (Failing)\n\n")
		for _, c := range r.Failures {
			sb.WriteString(fmt.Sprintf("- **%s**: %.2f%% regression exceeds threshold\n", c.Name, c.PercentageChange))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// ShortSummary renders a one-line count of regressions, improvements and
// new measurements.
func (r Report) ShortSummary() string {
	if r.Empty() {
		return "No benchmark data to compare."
	}

	regressions, improvements := 0, 0
	for _, c := range r.Comparisons {
		if c.IsRegression {
			regressions++
		} else if c.IsImprovement() {
			improvements++
		}
	}

	var parts []string
	if regressions > 0 {
		parts = append(parts, fmt.Sprintf("🔴 %d regression(s)", regressions))
	}
	if improvements > 0 {
		parts = append(parts, fmt.Sprintf("🟢 %d improvement(s)", improvements))
	}
	if len(r.New) > 0 {
		parts = append(parts, fmt.Sprintf("🆕 %d new benchmark(s)", len(r.New)))
	}

	if len(parts) == 0 {
		return "⚪ No significant changes"
	}
	return strings.Join(parts, ", ")
}

// FormatText renders the report for a plain terminal.
func FormatText(r Report) string {
	if r.Empty() {
		return "No benchmark data to compare.\n"
	}

	var sb strings.Builder
	for _, c := range r.Comparisons {
		arrow := "="
		switch {
		case c.IsRegression:
			arrow = "↑"
		case c.Ratio < 1.0:
			arrow = "↓"
		}
		sb.WriteString(fmt.Sprintf("%s %s: %.2f %s -> %.2f %s (%s)\n",
			arrow, c.Name, c.Previous, c.Unit, c.Current, c.Unit, signedPercent(c.PercentageChange, 1)))
	}
	for _, m := range r.New {
		sb.WriteString(fmt.Sprintf("+ %s: %.2f %s (new)\n", m.Name, m.Value, m.Unit))
	}
	for _, m := range r.Removed {
		sb.WriteString(fmt.Sprintf("- %s: %.2f %s (removed)\n", m.Name, m.Value, m.Unit))
	}

	sb.WriteString("\n" + r.ShortSummary() + "\n")
	return sb.String()
}

// FormatCI renders alerts and failures as GitHub Actions workflow
// annotations.
func FormatCI(r Report) string {
	var sb strings.Builder

	for _, c := range r.Alerts {
		sb.WriteString(fmt.Sprintf("::warning title=Performance Regression::Benchmark '%s' regressed by %.1f%% (%.2f %s → %.2f %s)\n",
			c.Name, c.PercentageChange, c.Previous, c.Unit, c.Current, c.Unit))
	}
	for _, c := range r.Failures {
		sb.WriteString(fmt.Sprintf("::error title=Critical Performance Regression::Benchmark '%s' regressed by %.1f%%, exceeding threshold\n",
			c.Name, c.PercentageChange))
	}

	return sb.String()
}

// jsonReport adds the derived flags to the serialized report.
type jsonReport struct {
	Report
	HasAlerts   bool `json:"has_alerts"`
	HasFailures bool `json:"has_failures"`
}

// FormatJSON formats the report as JSON.
func FormatJSON(r Report) (string, error) {
	data, err := json.MarshalIndent(jsonReport{Report: r, HasAlerts: r.HasAlerts(), HasFailures: r.HasFailures()}, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "formatting report as JSON")
	}
	return string(data), nil
}

// AlertMessage renders the comment body posted when a report has alerts.
// It returns false when there is nothing to alert on. ccUsers, when set, is
// appended verbatim as a cc line.
func AlertMessage(r Report, ccUsers string) (string, bool) {
	if !r.HasAlerts() {
		return "", false
	}

	var sb strings.Builder
	sb.WriteString("# ⚠️ Performance Alert\n\n")
	sb.WriteString("The following benchmarks show significant performance regressions:\n\n")
	sb.WriteString("| Benchmark | Previous | Current | Ratio | Change |\n")
	sb.WriteString("|-----------|----------|---------|-------|--------|\n")
	for _, c := range r.Alerts {
		sb.WriteString(fmt.Sprintf("| %s | %.2f %s | %.2f %s | %.2fx | %s |\n",
			c.Name, c.Previous, c.Unit, c.Current, c.Unit, c.Ratio, signedPercent(c.PercentageChange, 1)))
	}
	sb.WriteString("\n")

	if cc := strings.TrimSpace(ccUsers); cc != "" {
		sb.WriteString("cc: " + cc + "\n")
	}

	return sb.String(), true
}

// ShouldFail reports whether the process should exit non-zero.
func ShouldFail(r Report, failOnAlert bool) bool {
	return failOnAlert && r.HasFailures()
}

func indicator(c Comparison) string {
	switch {
	case c.IsRegression:
		return "🔴"
	case c.IsImprovement():
		return "🟢"
	default:
		return "⚪"
	}
}

func signedPercent(p float64, precision int) string {
	if p >= 0 {
		return fmt.Sprintf("+%.*f%%", precision, p)
	}
	return fmt.Sprintf("%.*f%%", precision, p)
}
