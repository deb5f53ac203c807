package harness

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every case met its expectations.
	Pass bool `json:"pass"`

	// Cases holds one result per scenario case, in order.
	Cases []CaseResult `json:"cases"`

	// Errors contains expectation failures prefixed with the case name.
	Errors []string `json:"errors,omitempty"`
}

// CaseResult is what one case compiled to.
type CaseResult struct {
	Name     string   `json:"name"`
	Tree     string   `json:"tree,omitempty"`
	Query    string   `json:"query,omitempty"`
	Params   []string `json:"params,omitempty"`
	Inline   string   `json:"inline,omitempty"`
	Matches  []int    `json:"matches,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	// Error is the filter error code when the case was rejected.
	Error string `json:"error,omitempty"`

	// Message is the full error text. It is not part of snapshots.
	Message string `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
