package trace

import "time"

// Record captures one engine evaluation: where in the model and the
// schedule it happened, what the rules did, and how long it took.
// Records are observability data, not engine state; the engine never
// reads them back.
type Record struct {
	// Identity
	ID    string `json:"id"`     // UUID v4, one per evaluation
	RunID string `json:"run_id"` // UUID v4, one per recorder lifetime

	// Time is when the evaluation finished.
	Time time.Time `json:"time"`

	// Model position
	Site  string `json:"site"`  // Hook site tag (input, middle, output, ...)
	Block int    `json:"block"` // Block index, -1 when the site has none
	Stage int    `json:"stage"` // Stage from tensor width, -1 when unknown

	// Schedule position
	Percent   float64 `json:"percent"`    // Sampling progress, 0.0 to 1.0
	Step      int     `json:"step"`       // Nearest schedule step, -1 without a schedule
	StepExact int     `json:"step_exact"` // Exact schedule step, -1 when sigma is off-grid
	Sigma     float64 `json:"sigma"`      // Noise level at the hook call
	SigmaNext float64 `json:"sigma_next"` // Next schedule sigma, 0 at the last step

	// Outcome
	MatchedRules int  `json:"matched_rules"` // Rules whose conditions held
	OpsApplied   int  `json:"ops_applied"`   // Operations executed
	Skipped      bool `json:"skipped"`       // Sigma outside the resolvable range

	// Duration is the evaluation wall time.
	Duration time.Duration `json:"duration"`

	// Error is the evaluation error message, empty on success.
	Error string `json:"error,omitempty"`
}

// Status values for Filter.Status.
const (
	StatusOK      = "ok"      // Evaluated without error, not skipped
	StatusSkipped = "skipped" // Passed through with sigma out of range
	StatusError   = "error"   // Evaluation returned an error
)

// Filter defines the query parameters for reading records back.
type Filter struct {
	// Time range (inclusive)
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`

	// Position filters
	RunID string `json:"run_id,omitempty"`
	Site  string `json:"site,omitempty"`
	Block *int   `json:"block,omitempty"`

	// Step range (inclusive)
	MinStep *int `json:"min_step,omitempty"`
	MaxStep *int `json:"max_step,omitempty"`

	// Status is one of the Status constants, empty for all records.
	Status string `json:"status,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Sorting: SortBy is "time", "step" or "duration"; SortOrder is
	// "asc" or "desc". Defaults to time descending.
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
}

// Matches reports whether a record passes the filter's non-pagination
// criteria. Backends without native filtering use it directly.
func (f *Filter) Matches(rec *Record) bool {
	if f.Start != nil && rec.Time.Before(*f.Start) {
		return false
	}
	if f.End != nil && rec.Time.After(*f.End) {
		return false
	}

	if f.RunID != "" && rec.RunID != f.RunID {
		return false
	}
	if f.Site != "" && rec.Site != f.Site {
		return false
	}
	if f.Block != nil && rec.Block != *f.Block {
		return false
	}

	if f.MinStep != nil && rec.Step < *f.MinStep {
		return false
	}
	if f.MaxStep != nil && rec.Step > *f.MaxStep {
		return false
	}

	switch f.Status {
	case StatusOK:
		if rec.Error != "" || rec.Skipped {
			return false
		}
	case StatusSkipped:
		if !rec.Skipped {
			return false
		}
	case StatusError:
		if rec.Error == "" {
			return false
		}
	}

	return true
}
