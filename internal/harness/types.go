package harness

import (
	"github.com/roach88/querydsl/internal/dsl"
	"github.com/roach88/querydsl/internal/validate"
)

// Result is the outcome of one scenario run.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Document is the assembled search request.
	Document dsl.Object `json:"document"`

	// Undefined reports that the tree compiled to no query clause.
	Undefined bool `json:"undefined,omitempty"`

	// Compact is the serialized tree, empty when it cannot be serialized.
	Compact string `json:"compact,omitempty"`

	// Errors are the validation errors of the tree.
	Errors []validate.Error `json:"errors,omitempty"`

	// Failures describe expectations that did not hold.
	Failures []string `json:"failures,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddFailure records a failed expectation and marks the result failed.
func (r *Result) AddFailure(msg string) {
	r.Failures = append(r.Failures, msg)
	r.Pass = false
}

// ErrorIDs returns the IDs of the validation errors, in order.
func (r *Result) ErrorIDs() []string {
	ids := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		ids = append(ids, e.ID)
	}
	return ids
}
