package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/BaSui01/socialforge/types"
)

func TestFormatFeedbackEmpty(t *testing.T) {
	assert.Equal(t, "", FormatFeedback(nil))
	assert.Equal(t, "", FormatFeedback([]types.Issue{}))
}

func TestFormatFeedbackNumbering(t *testing.T) {
	got := FormatFeedback([]types.Issue{
		{Field: "caption", Message: "Caption: exceeds 2200 characters"},
		{Field: "hashtags", Message: "Hashtags: incorrect count (3). Must be 15-30."},
	})
	want := "<PREVIOUS_ATTEMPT_FEEDBACK>\n" +
		"You MUST fix the following errors from your last attempt:\n" +
		"1. Caption: exceeds 2200 characters\n" +
		"2. Hashtags: incorrect count (3). Must be 15-30.\n" +
		"</PREVIOUS_ATTEMPT_FEEDBACK>"
	assert.Equal(t, want, got)
}

// Formatting is a pure function of the issue list: same issues in, same
// block out, one numbered line per issue, every message verbatim.
func TestFormatFeedbackProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "n")
		issues := make([]types.Issue, n)
		for i := range issues {
			issues[i] = types.Issue{
				Field:   rapid.StringMatching(`[a-z_]{1,16}`).Draw(t, "field"),
				Message: rapid.StringMatching(`[ -~]{1,64}`).Draw(t, "msg"),
			}
		}

		first := FormatFeedback(issues)
		second := FormatFeedback(issues)
		assert.Equal(t, first, second)

		if n == 0 {
			assert.Equal(t, "", first)
			return
		}
		assert.True(t, strings.HasPrefix(first, "<PREVIOUS_ATTEMPT_FEEDBACK>\n"))
		assert.True(t, strings.HasSuffix(first, "\n</PREVIOUS_ATTEMPT_FEEDBACK>"))
		for _, is := range issues {
			assert.Contains(t, first, is.Message)
		}
		assert.Contains(t, first, "\n1. ")
	})
}
