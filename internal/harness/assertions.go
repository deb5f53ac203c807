package harness

import (
	"fmt"
	"slices"
)

// checkCase compares a case result against its expectations and returns one
// message per mismatch.
func checkCase(c Case, r CaseResult) []string {
	var failures []string
	exp := c.Expect

	if exp.Error != "" {
		if r.Error != exp.Error {
			failures = append(failures, fmt.Sprintf("expected error %s, got %s", exp.Error, describeError(r)))
		}
		return failures
	}
	if r.Error != "" {
		return append(failures, fmt.Sprintf("unexpected error: %s", r.Message))
	}

	if exp.Tree != "" && r.Tree != exp.Tree {
		failures = append(failures, fmt.Sprintf("tree mismatch:\n  expected: %s\n  actual:   %s", exp.Tree, r.Tree))
	}
	if exp.Query != "" && r.Query != exp.Query {
		failures = append(failures, fmt.Sprintf("query mismatch:\n  expected: %s\n  actual:   %s", exp.Query, r.Query))
	}
	if exp.Params != nil && !slices.Equal(r.Params, exp.Params) {
		failures = append(failures, fmt.Sprintf("params mismatch: expected %v, got %v", exp.Params, r.Params))
	}
	if exp.Inline != "" && r.Inline != exp.Inline {
		failures = append(failures, fmt.Sprintf("inline mismatch:\n  expected: %s\n  actual:   %s", exp.Inline, r.Inline))
	}
	if exp.Matches != nil && !slices.Equal(r.Matches, exp.Matches) {
		failures = append(failures, fmt.Sprintf("matches mismatch: expected %v, got %v", exp.Matches, r.Matches))
	}
	if exp.Warnings != nil && len(r.Warnings) != *exp.Warnings {
		failures = append(failures, fmt.Sprintf("expected %d warning(s), got %d: %v", *exp.Warnings, len(r.Warnings), r.Warnings))
	}
	return failures
}

func describeError(r CaseResult) string {
	if r.Error == "" {
		return "none"
	}
	return r.Error
}
