package history

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"benchkeep/internal/errs"

	"github.com/pkg/errors"
)

// ErrOutOfOrder is returned when a run would be appended before the latest
// run of its suite.
var ErrOutOfOrder = errors.New("run predates the latest run of its suite")

// New returns an empty history.
func New() History {
	return History{Entries: map[string][]Run{}}
}

// Load decodes a history document. Empty input is treated as an absent
// document and yields an empty history; anything else that does not decode
// is a ParseError.
func Load(data []byte) (History, error) {
	return decode("history", data)
}

func decode(source string, data []byte) (History, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return New(), nil
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return History{}, errs.Parse(source, err)
	}

	// "entries": null and a missing key both load as an empty map
	if h.Entries == nil {
		h.Entries = map[string][]Run{}
	}

	return h, nil
}

// Serialize encodes the history deterministically: two-space indentation,
// suites in sorted key order, runs in stored order, trailing newline.
func Serialize(h History) ([]byte, error) {
	if h.Entries == nil {
		h.Entries = map[string][]Run{}
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "serializing history")
	}

	return append(data, '\n'), nil
}

// AppendRun records run as the newest entry of suite. When maxItems is
// positive the oldest entries are evicted until at most maxItems remain.
// LastUpdated is set to now on every call.
func (h *History) AppendRun(suite string, run Run, maxItems int) error {
	return h.AppendRunAt(suite, run, maxItems, time.Now().UTC())
}

// AppendRunAt is AppendRun with an explicit clock reading.
func (h *History) AppendRunAt(suite string, run Run, maxItems int, now time.Time) error {
	if h.Entries == nil {
		h.Entries = map[string][]Run{}
	}

	runs := h.Entries[suite]
	if n := len(runs); n > 0 && run.CapturedAt.Before(runs[n-1].CapturedAt) {
		return errors.Wrapf(ErrOutOfOrder, "suite %q: %s before %s", suite,
			run.CapturedAt.Format(time.RFC3339), runs[n-1].CapturedAt.Format(time.RFC3339))
	}

	h.LastUpdated = &now

	runs = append(runs, run)

	// Re-slice to the retention window; the backing array is reclaimed on
	// the next growth.
	if maxItems > 0 && len(runs) > maxItems {
		runs = runs[len(runs)-maxItems:]
	}

	h.Entries[suite] = runs
	return nil
}

// LatestRun returns the most recent run of suite.
func (h History) LatestRun(suite string) (Run, bool) {
	runs := h.Entries[suite]
	if len(runs) == 0 {
		return Run{}, false
	}
	return runs[len(runs)-1], true
}

// PreviousRun returns the run before the most recent one.
func (h History) PreviousRun(suite string) (Run, bool) {
	runs := h.Entries[suite]
	if len(runs) < 2 {
		return Run{}, false
	}
	return runs[len(runs)-2], true
}

// Suite returns the runs of suite or a NotFoundError when it has none.
func (h History) Suite(suite string) ([]Run, error) {
	runs, ok := h.Entries[suite]
	if !ok || len(runs) == 0 {
		return nil, errs.NotFound("suite %q", suite)
	}
	return runs, nil
}

// Recent returns up to limit runs of suite, newest first. A limit of zero
// or less returns every run.
func (h History) Recent(suite string, limit int) []Run {
	runs := h.Entries[suite]
	if limit <= 0 || limit > len(runs) {
		limit = len(runs)
	}

	out := make([]Run, 0, limit)
	for i := len(runs) - 1; i >= len(runs)-limit; i-- {
		out = append(out, runs[i])
	}
	return out
}

// Suites returns a summary for every suite, sorted by name.
func (h History) Suites() []SuiteSummary {
	names := make([]string, 0, len(h.Entries))
	for name := range h.Entries {
		names = append(names, name)
	}
	sort.Strings(names)

	summaries := make([]SuiteSummary, 0, len(names))
	for _, name := range names {
		s := SuiteSummary{Name: name, Runs: len(h.Entries[name])}
		if latest, ok := h.LatestRun(name); ok {
			s.Latest = latest.CapturedAt
		}
		summaries = append(summaries, s)
	}
	return summaries
}
