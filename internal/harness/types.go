package harness

import "github.com/roach88/perfmodel/internal/model"

// MergeEvent records one merge the harness performed.
type MergeEvent struct {
	Seq         int64  `json:"seq"`
	Scenario    string `json:"scenario"`
	TraceID     int64  `json:"trace_id"`
	Outcome     string `json:"outcome"`
	Interaction string `json:"interaction,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Log contains every merge in the order it ran.
	Log []MergeEvent `json:"log"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Model is the model loaded back from the store after the run.
	Model *model.Model `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Log:    []MergeEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddMerge appends a merge to the log.
func (r *Result) AddMerge(ev MergeEvent) {
	r.Log = append(r.Log, ev)
}
