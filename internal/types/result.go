package types

import "time"

// ChangeSummary counts the rows inserted, updated, and deleted for one table
// during one sync pass. Transient, used only for reporting.
type ChangeSummary struct {
	Table    string `json:"table"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Deleted  int    `json:"deleted"`
	Failed   int    `json:"failed"`
	Skipped  bool   `json:"skipped"` // table completely unchanged, nothing applied
}

// Changed reports whether the pass applied any rows for this table.
func (c ChangeSummary) Changed() bool {
	return c.Inserted > 0 || c.Updated > 0 || c.Deleted > 0
}

// PassResult aggregates the outcome of one complete iteration over all
// source tables.
type PassResult struct {
	PassID      string          `json:"passId"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt time.Time       `json:"completedAt"`
	Duration    time.Duration   `json:"duration"`
	Tables      []ChangeSummary `json:"tables"`
	Errors      []string        `json:"errors,omitempty"`
}

// TotalChanges returns the sum of inserted, updated, and deleted rows across
// all tables in the pass.
func (p *PassResult) TotalChanges() int {
	total := 0
	for _, t := range p.Tables {
		total += t.Inserted + t.Updated + t.Deleted
	}
	return total
}
