// Package parser extracts measurements from benchmark tool output.
package parser

import (
	"os"
	"sort"
	"strings"

	"benchkeep/internal/errs"
	"benchkeep/internal/history"

	"github.com/pkg/errors"
)

// ErrNoResults is wrapped into the ParseError returned for output without
// any recognizable benchmark line.
var ErrNoResults = errors.New("no benchmark results found in output")

// lineParser recognizes measurements in a single tool's output.
type lineParser interface {
	parse(lines []string) []history.Measurement
}

var parsers = map[string]lineParser{
	"cargo":     cargoParser{},
	"criterion": cargoParser{},
	"go":        goParser{},
}

// Tools lists the accepted tool names.
func Tools() []string {
	names := make([]string, 0, len(parsers))
	for name := range parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse extracts measurements from output produced by tool. Measurements
// keep the order of the output; a repeated name keeps its first value.
func Parse(tool, output string) ([]history.Measurement, error) {
	p, ok := parsers[tool]
	if !ok {
		return nil, errs.Config("tool", errors.Errorf("unknown tool %q, must be one of: %s", tool, strings.Join(Tools(), ", ")))
	}

	lines := strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n")

	var out []history.Measurement
	seen := make(map[string]bool)
	for _, m := range p.parse(lines) {
		if seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		out = append(out, m)
	}

	if len(out) == 0 {
		return nil, errs.Parse(tool+" output", ErrNoResults)
	}
	return out, nil
}

// ParseFile reads path and parses it as tool output.
func ParseFile(tool, path string) ([]history.Measurement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound("benchmark output %s", path)
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	ms, err := Parse(tool, string(data))
	if err != nil && errs.IsParse(err) {
		return nil, errs.Parse(path, ErrNoResults)
	}
	return ms, err
}
