package history

import "time"

// Measurement is a single named benchmark result.
type Measurement struct {
	Name  string            `json:"name"`
	Value float64           `json:"value"`
	Unit  string            `json:"unit"`            // e.g. "ns/iter"
	Range string            `json:"range,omitempty"` // Variance descriptor, e.g. "+/- 12"
	Extra map[string]string `json:"extra,omitempty"` // Free-form metadata from the parser
}

// Author identifies who made a revision.
type Author struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// Revision identifies the code state a set of measurements belongs to.
type Revision struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"` // First line of the commit message
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url,omitempty"`
	Author    *Author   `json:"author,omitempty"`
}

// Run is one measurement event.
type Run struct {
	Revision     Revision      `json:"commit"`
	CapturedAt   time.Time     `json:"date"`
	Tool         string        `json:"tool"`
	Measurements []Measurement `json:"benches"`
}

// History is the persisted root document. Runs within a suite are kept in
// chronological order; the last element is the most recent.
type History struct {
	LastUpdated *time.Time       `json:"last_update"`
	RepoURL     *string          `json:"repo_url"`
	Entries     map[string][]Run `json:"entries"`
}

// SuiteSummary is a lightweight view for listing suites.
type SuiteSummary struct {
	Name   string    `json:"name"`
	Runs   int       `json:"runs"`
	Latest time.Time `json:"latest"`
}
