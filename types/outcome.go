package types

import "strings"

// IssueRule names the constraint a validation issue violated.
type IssueRule string

const (
	RuleRequired        IssueRule = "required"
	RuleMaxLength       IssueRule = "max_length"
	RuleCardinality     IssueRule = "cardinality"
	RuleRequiredPrefix  IssueRule = "required_prefix"
	RuleForbiddenPrefix IssueRule = "forbidden_prefix"
	RuleFieldType       IssueRule = "field_type"
)

// Issue describes a single validation violation: the offending field, the
// rule it broke, and a human-readable message suitable for feedback.
type Issue struct {
	Field    string    `json:"field"`
	Rule     IssueRule `json:"rule"`
	Message  string    `json:"message"`
	Observed string    `json:"observed,omitempty"`
	Expected string    `json:"expected,omitempty"`
}

// String returns the issue message.
func (i Issue) String() string { return i.Message }

// ValidationOutcome is the result of checking one candidate output against
// a schema descriptor. Issues are ordered by field declaration order and
// accumulate across all fields in one pass.
type ValidationOutcome struct {
	Issues []Issue `json:"issues,omitempty"`
}

// Passed reports whether the candidate satisfied every constraint.
func (o ValidationOutcome) Passed() bool { return len(o.Issues) == 0 }

// Summary renders a compact one-line description, mainly for logs.
func (o ValidationOutcome) Summary() string {
	if o.Passed() {
		return "passed"
	}
	msgs := make([]string, 0, len(o.Issues))
	for _, is := range o.Issues {
		msgs = append(msgs, is.Message)
	}
	return strings.Join(msgs, "; ")
}
