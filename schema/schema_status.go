package schema

import "time"

// StoreStatus represents the status of the sprint store.
type StoreStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	EntryCount      int       `json:"entry_count"`
	TotalBytes      int64     `json:"total_bytes"`
	OldestUpdate    time.Time `json:"oldest_update"`
	NewestUpdate    time.Time `json:"newest_update"`
	SchemaVersion   uint      `json:"schema_version"`
	PayloadVersions []int     `json:"payload_versions,omitempty"`
}

// PopulateResult reports what happened to one sprint during a batch refresh.
type PopulateResult struct {
	Range    SprintRange     `json:"range"`
	Outcome  PopulateOutcome `json:"outcome"`
	Duration time.Duration   `json:"duration"`
	Err      error           `json:"-"`
	Error    string          `json:"error,omitempty"`
}

// PopulateReport summarizes a batch refresh.
type PopulateReport struct {
	RunID    string           `json:"run_id"`
	Results  []PopulateResult `json:"results"`
	Duration time.Duration    `json:"duration"`
}

// Failed returns the number of sprints that failed.
func (r PopulateReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			n++
		}
	}
	return n
}

// Fail marks the result as failed with err.
func (r *PopulateResult) Fail(err error) {
	r.Outcome = OutcomeFailed
	r.Err = err
	r.Error = err.Error()
}
