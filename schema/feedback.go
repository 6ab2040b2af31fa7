package schema

import (
	"fmt"
	"strings"

	"github.com/BaSui01/socialforge/types"
)

// FormatFeedback turns the issues of a failed attempt into a directive
// block for the next generation prompt. Issues are numbered 1..N in input
// order; an empty issue list yields the empty string. The function is
// pure: identical input always produces identical output.
func FormatFeedback(issues []types.Issue) string {
	if len(issues) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<PREVIOUS_ATTEMPT_FEEDBACK>\n")
	b.WriteString("You MUST fix the following errors from your last attempt:\n")
	for i, is := range issues {
		fmt.Fprintf(&b, "%d. %s\n", i+1, is.Message)
	}
	b.WriteString("</PREVIOUS_ATTEMPT_FEEDBACK>")
	return b.String()
}
