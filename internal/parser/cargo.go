package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"benchkeep/internal/history"
)

var (
	// test bench_add ... bench:       1,234 ns/iter (+/- 56)
	libtestLine = regexp.MustCompile(`test\s+(\S+)\s+\.\.\.\s+bench:\s+([\d,]+)\s+(\w+/\w+)(?:\s+\(\+/-\s+([\d,]+)\))?`)

	// fib 20   time:   [24.891 µs 25.012 µs 25.150 µs]
	criterionLine = regexp.MustCompile(`^(?:(.+?)\s+)?time:\s+\[([\d.]+)\s*([a-zµμ]+)\s+([\d.]+)\s*([a-zµμ]+)\s+([\d.]+)\s*([a-zµμ]+)\]`)
)

// cargoParser reads libtest bench output and criterion reports.
type cargoParser struct{}

func (cargoParser) parse(lines []string) []history.Measurement {
	var out []history.Measurement
	pending := "" // criterion prints long names on their own line

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m, ok := parseLibtest(line); ok {
			out = append(out, m)
			pending = ""
			continue
		}

		if m, ok := parseCriterion(line, pending); ok {
			out = append(out, m)
			pending = ""
			continue
		}

		if !strings.ContainsAny(line, " \t") {
			pending = line
		} else {
			pending = ""
		}
	}

	return out
}

func parseLibtest(line string) (history.Measurement, bool) {
	match := libtestLine.FindStringSubmatch(line)
	if match == nil {
		return history.Measurement{}, false
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(match[2], ",", ""), 64)
	if err != nil {
		return history.Measurement{}, false
	}

	m := history.Measurement{Name: match[1], Value: value, Unit: match[3]}
	if match[4] != "" {
		m.Range = "+/- " + strings.ReplaceAll(match[4], ",", "")
	}
	return m, true
}

func parseCriterion(line, pending string) (history.Measurement, bool) {
	match := criterionLine.FindStringSubmatch(line)
	if match == nil {
		return history.Measurement{}, false
	}

	name := match[1]
	if name == "" {
		name = pending
	}
	if name == "" {
		return history.Measurement{}, false
	}

	low, err1 := strconv.ParseFloat(match[2], 64)
	mid, err2 := strconv.ParseFloat(match[4], 64)
	high, err3 := strconv.ParseFloat(match[6], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return history.Measurement{}, false
	}

	value, unit := normalizeTime(mid, match[5])
	lowNorm, _ := normalizeTime(low, match[3])
	highNorm, _ := normalizeTime(high, match[7])

	return history.Measurement{
		Name:  name,
		Value: value,
		Unit:  unit,
		Range: fmt.Sprintf("[%.4f %s, %.4f %s]", lowNorm, unit, highNorm, unit),
		Extra: map[string]string{
			"low":  fmt.Sprintf("%.4f", lowNorm),
			"high": fmt.Sprintf("%.4f", highNorm),
		},
	}, true
}

// normalizeTime converts criterion time units to nanoseconds. Unknown units
// pass through unchanged.
func normalizeTime(v float64, unit string) (float64, string) {
	switch unit {
	case "ps":
		return v / 1000, "ns"
	case "ns":
		return v, "ns"
	case "µs", "μs", "us":
		return v * 1000, "ns"
	case "ms":
		return v * 1e6, "ns"
	case "s":
		return v * 1e9, "ns"
	default:
		return v, unit
	}
}
