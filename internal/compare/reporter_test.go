package compare

import (
	"encoding/json"
	"strings"
	"testing"

	"benchkeep/internal/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() Report {
	prev := runOf(bench("slow", 100), bench("fast", 100), bench("same", 100), bench("gone", 7))
	cur := []history.Measurement{bench("slow", 250), bench("fast", 50), bench("same", 101), bench("fresh", 3)}
	return Compare(cur, prev, Thresholds{Alert: 2.0, Fail: 2.5})
}

func TestSummaryMarkdown(t *testing.T) {
	assert := assert.New(t)
	out := sampleReport().Summary()

	assert.True(strings.HasPrefix(out, "## Benchmark Comparison Report\n"))
	assert.Contains(out, "| slow | 100.00 ns/iter | 250.00 ns/iter | 🔴 +150.00% |")
	assert.Contains(out, "| fast | 100.00 ns/iter | 50.00 ns/iter | 🟢 -50.00% |")
	assert.Contains(out, "| same | 100.00 ns/iter | 101.00 ns/iter | 🔴 +1.00% |")
	assert.Contains(out, "### New Benchmarks\n\n- **fresh**: 3.00 ns/iter")
	assert.Contains(out, "### Removed Benchmarks\n\n- **gone** (was 7.00 ns/iter)")
	assert.Contains(out, "### ⚠️ Performance Alerts\n\n- **slow**: 150.00% regression (100.00 ns/iter → 250.00 ns/iter)")
	assert.Contains(out, "### 🚨 Critical Regressions (Failing)\n\n- **slow**: 150.00% regression exceeds threshold")
	assert.False(strings.HasSuffix(out, "\n"))
}

func TestSummaryNeutralIndicator(t *testing.T) {
	report := Compare([]history.Measurement{bench("a", 97)}, runOf(bench("a", 100)), defaultThresholds)
	assert.Contains(t, report.Summary(), "| a | 100.00 ns/iter | 97.00 ns/iter | ⚪ -3.00% |")
}

func TestSummaryEmpty(t *testing.T) {
	empty := Compare(nil, nil, defaultThresholds)
	assert.Equal(t, "No benchmark comparisons available.", empty.Summary())
	assert.Equal(t, "No benchmark data to compare.", empty.ShortSummary())
}

func TestShortSummary(t *testing.T) {
	assert.Equal(t, "🔴 2 regression(s), 🟢 1 improvement(s), 🆕 1 new benchmark(s)", sampleReport().ShortSummary())

	flat := Compare([]history.Measurement{bench("a", 100)}, runOf(bench("a", 100)), defaultThresholds)
	assert.Equal(t, "⚪ No significant changes", flat.ShortSummary())
}

func TestFormatText(t *testing.T) {
	assert := assert.New(t)
	out := FormatText(sampleReport())

	assert.Contains(out, "↑ slow: 100.00 ns/iter -> 250.00 ns/iter (+150.0%)")
	assert.Contains(out, "↓ fast: 100.00 ns/iter -> 50.00 ns/iter (-50.0%)")
	assert.Contains(out, "+ fresh: 3.00 ns/iter (new)")
	assert.Contains(out, "- gone: 7.00 ns/iter (removed)")
	assert.True(strings.HasSuffix(out, sampleReport().ShortSummary()+"\n"))
}

func TestFormatCI(t *testing.T) {
	assert := assert.New(t)
	out := FormatCI(sampleReport())

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(lines, 2)
	assert.Equal("::warning title=Performance Regression::Benchmark 'slow' regressed by 150.0% (100.00 ns/iter → 250.00 ns/iter)", lines[0])
	assert.Equal("::error title=Critical Performance Regression::Benchmark 'slow' regressed by 150.0%, exceeding threshold", lines[1])

	assert.Empty(FormatCI(Compare(nil, nil, defaultThresholds)))
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(sampleReport())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, true, decoded["has_alerts"])
	assert.Equal(t, true, decoded["has_failures"])
	assert.Len(t, decoded["comparisons"], 3)
	assert.Len(t, decoded["new_benchmarks"], 1)
	assert.Len(t, decoded["removed_benchmarks"], 1)
}

func TestAlertMessage(t *testing.T) {
	assert := assert.New(t)

	msg, ok := AlertMessage(sampleReport(), "@octocat @hubot")
	assert.True(ok)
	assert.True(strings.HasPrefix(msg, "# ⚠️ Performance Alert\n"))
	assert.Contains(msg, "| slow | 100.00 ns/iter | 250.00 ns/iter | 2.50x | +150.0% |")
	assert.Contains(msg, "cc: @octocat @hubot\n")

	msg, ok = AlertMessage(sampleReport(), "")
	assert.True(ok)
	assert.NotContains(msg, "cc:")

	_, ok = AlertMessage(Compare([]history.Measurement{bench("a", 1)}, runOf(bench("a", 1)), defaultThresholds), "@x")
	assert.False(ok)
}

func TestShouldFail(t *testing.T) {
	report := sampleReport()
	assert.True(t, ShouldFail(report, true))
	assert.False(t, ShouldFail(report, false))

	alertsOnly := Compare([]history.Measurement{bench("a", 220)}, runOf(bench("a", 100)), Thresholds{Alert: 2.0, Fail: 3.0})
	assert.False(t, ShouldFail(alertsOnly, true))
}
