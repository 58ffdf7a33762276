package parser

import (
	"strconv"
	"strings"

	"benchkeep/internal/history"

	"golang.org/x/perf/benchfmt"
)

// goParser reads `go test -bench` output. The first value/unit pair is the
// measurement; further pairs and the iteration count go into Extra.
type goParser struct{}

func (goParser) parse(lines []string) []history.Measurement {
	var out []history.Measurement

	r := benchfmt.NewReader(strings.NewReader(strings.Join(lines, "\n")), "go test output")
	for r.Scan() {
		res, ok := r.Result().(*benchfmt.Result)
		if !ok || len(res.Values) == 0 {
			// Syntax errors and unit metadata
			continue
		}

		name, procs := goName(res.Name)
		value, unit := original(res.Values[0])
		m := history.Measurement{
			Name:  name,
			Value: value,
			Unit:  unit,
			Extra: map[string]string{"iterations": strconv.Itoa(res.Iters)},
		}
		if procs != "" {
			m.Extra["procs"] = procs
		}
		for _, v := range res.Values[1:] {
			value, unit := original(v)
			m.Extra[unit] = strconv.FormatFloat(value, 'f', -1, 64)
		}

		out = append(out, m)
	}

	return out
}

// goName rebuilds the benchmark name as printed, minus the GOMAXPROCS
// suffix, which is returned separately.
func goName(n benchfmt.Name) (string, string) {
	base, parts := n.Parts()

	var (
		sb    strings.Builder
		procs string
	)
	sb.WriteString("Benchmark")
	sb.Write(base)
	for _, p := range parts {
		if len(p) > 1 && p[0] == '-' {
			procs = string(p[1:])
			continue
		}
		sb.Write(p)
	}
	return sb.String(), procs
}

// original undoes benchfmt's unit tidying (ns/op to sec/op and so on).
func original(v benchfmt.Value) (float64, string) {
	if v.OrigUnit != "" {
		return v.OrigValue, v.OrigUnit
	}
	return v.Value, v.Unit
}
