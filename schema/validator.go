package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/BaSui01/socialforge/types"
)

// maxReportedItems bounds how many offending list items a single prefix
// issue names; beyond that the message would stop being useful feedback.
const maxReportedItems = 3

// Validate checks a candidate output against the descriptor and returns
// the full set of violations in one pass. Issues follow field declaration
// order so that formatted feedback is reproducible. A missing required
// field short-circuits only that field's remaining checks; every other
// field is still validated, because the caller needs the complete issue
// list to correct all problems in a single retry.
func Validate(d Descriptor, candidate map[string]any) types.ValidationOutcome {
	var issues []types.Issue

	for _, f := range d.Fields {
		raw, present := candidate[f.Name]
		if !present || raw == nil {
			if f.Required {
				issues = append(issues, types.Issue{
					Field:   f.Name,
					Rule:    types.RuleRequired,
					Message: fmt.Sprintf("A required field is missing: %s", f.Name),
				})
			}
			continue
		}

		switch f.Type {
		case FieldText:
			issues = append(issues, validateText(f, raw)...)
		case FieldTextList:
			issues = append(issues, validateTextList(f, raw)...)
		}
	}

	return types.ValidationOutcome{Issues: issues}
}

func validateText(f Field, raw any) []types.Issue {
	s, ok := raw.(string)
	if !ok {
		return []types.Issue{{
			Field:    f.Name,
			Rule:     types.RuleFieldType,
			Message:  fmt.Sprintf("%s: expected text, got %T", f.DisplayName(), raw),
			Observed: fmt.Sprintf("%T", raw),
			Expected: "text",
		}}
	}
	if f.MaxLength > 0 {
		if n := utf8.RuneCountInString(s); n > f.MaxLength {
			return []types.Issue{{
				Field:    f.Name,
				Rule:     types.RuleMaxLength,
				Message:  fmt.Sprintf("%s: exceeds %d characters", f.DisplayName(), f.MaxLength),
				Observed: fmt.Sprintf("%d", n),
				Expected: fmt.Sprintf("<=%d", f.MaxLength),
			}}
		}
	}
	return nil
}

func validateTextList(f Field, raw any) []types.Issue {
	items, ok := toStringSlice(raw)
	if !ok {
		return []types.Issue{{
			Field:    f.Name,
			Rule:     types.RuleFieldType,
			Message:  fmt.Sprintf("%s: expected a list of text, got %T", f.DisplayName(), raw),
			Observed: fmt.Sprintf("%T", raw),
			Expected: "list of text",
		}}
	}

	var issues []types.Issue

	// All list checks run; a bad count never hides a prefix problem.
	k := len(items)
	if (f.MinItems > 0 && k < f.MinItems) || (f.MaxItems > 0 && k > f.MaxItems) {
		issues = append(issues, types.Issue{
			Field:    f.Name,
			Rule:     types.RuleCardinality,
			Message:  fmt.Sprintf("%s: incorrect count (%d). Must be %d-%d.", f.DisplayName(), k, f.MinItems, f.MaxItems),
			Observed: fmt.Sprintf("%d", k),
			Expected: fmt.Sprintf("%d-%d", f.MinItems, f.MaxItems),
		})
	}

	if f.RequiredPrefix != "" {
		if bad := offenders(items, func(s string) bool { return !strings.HasPrefix(s, f.RequiredPrefix) }); len(bad) > 0 {
			issues = append(issues, types.Issue{
				Field:    f.Name,
				Rule:     types.RuleRequiredPrefix,
				Message:  fmt.Sprintf("%s: missing %q on: %v", f.DisplayName(), f.RequiredPrefix, bad),
				Expected: fmt.Sprintf("prefix %q", f.RequiredPrefix),
			})
		}
	}

	if f.ForbiddenPrefix != "" {
		if bad := offenders(items, func(s string) bool { return strings.HasPrefix(s, f.ForbiddenPrefix) }); len(bad) > 0 {
			issues = append(issues, types.Issue{
				Field:    f.Name,
				Rule:     types.RuleForbiddenPrefix,
				Message:  fmt.Sprintf("%s: should not have %q: %v", f.DisplayName(), f.ForbiddenPrefix, bad),
				Expected: fmt.Sprintf("no prefix %q", f.ForbiddenPrefix),
			})
		}
	}

	return issues
}

// offenders collects up to maxReportedItems items matching the predicate.
func offenders(items []string, bad func(string) bool) []string {
	var out []string
	for _, it := range items {
		if bad(it) {
			out = append(out, it)
			if len(out) == maxReportedItems {
				break
			}
		}
	}
	return out
}

// toStringSlice accepts both []string and the []any that encoding/json
// produces for arrays. Non-string elements reject the whole list.
func toStringSlice(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
