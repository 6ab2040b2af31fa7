package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/socialforge/types"
)

func hashtagList(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "#tag" + strings.Repeat("x", i%5)
	}
	return out
}

func instagramDescriptor(t *testing.T) Descriptor {
	t.Helper()
	d, err := Builtin().Get("instagram")
	require.NoError(t, err)
	return d
}

func TestValidateAllConstraintsSatisfied(t *testing.T) {
	d := instagramDescriptor(t)
	out := Validate(d, map[string]any{
		"caption":  "Golden hour at the beach ✨",
		"hashtags": hashtagList(17),
		"alt_text": "Sunset over a calm ocean with palm trees.",
	})
	assert.True(t, out.Passed())
	assert.Empty(t, out.Issues)
}

func TestValidateAccumulatesCountAndPrefixIssues(t *testing.T) {
	// Three hashtags, two of which lack the marker: the validator must
	// report the count violation AND the prefix violation in one pass.
	d := instagramDescriptor(t)
	out := Validate(d, map[string]any{
		"caption":  "short",
		"hashtags": []any{"travel", "sunset", "#vacation"},
		"alt_text": "A beach.",
	})
	require.False(t, out.Passed())
	require.Len(t, out.Issues, 2)

	assert.Equal(t, types.RuleCardinality, out.Issues[0].Rule)
	assert.Equal(t, "Hashtags: incorrect count (3). Must be 15-30.", out.Issues[0].Message)

	assert.Equal(t, types.RuleRequiredPrefix, out.Issues[1].Rule)
	assert.Contains(t, out.Issues[1].Message, "travel")
	assert.Contains(t, out.Issues[1].Message, "sunset")
	assert.NotContains(t, out.Issues[1].Message, "#vacation")
}

func TestValidateMaxLength(t *testing.T) {
	d := instagramDescriptor(t)
	out := Validate(d, map[string]any{
		"caption":  strings.Repeat("a", 2201),
		"hashtags": hashtagList(15),
		"alt_text": "ok",
	})
	require.Len(t, out.Issues, 1)
	assert.Equal(t, "Caption: exceeds 2200 characters", out.Issues[0].Message)
}

func TestValidateMaxLengthCountsRunes(t *testing.T) {
	d := Descriptor{Name: "t", Fields: []Field{
		{Name: "alt_text", Type: FieldText, Required: true, MaxLength: 4},
	}}
	// 4 runes, 12 bytes: must pass.
	assert.True(t, Validate(d, map[string]any{"alt_text": "日本語系"}).Passed())
	assert.False(t, Validate(d, map[string]any{"alt_text": "日本語系統"}).Passed())
}

func TestValidateMissingFieldShortCircuitsOnlyThatField(t *testing.T) {
	d := instagramDescriptor(t)
	out := Validate(d, map[string]any{
		"hashtags": []any{"#one"},
	})
	require.Len(t, out.Issues, 3)
	assert.Equal(t, "A required field is missing: caption", out.Issues[0].Message)
	assert.Equal(t, types.RuleCardinality, out.Issues[1].Rule)
	assert.Equal(t, "A required field is missing: alt_text", out.Issues[2].Message)
}

func TestValidateOptionalFieldMayBeAbsent(t *testing.T) {
	d, err := Builtin().Get("facebook")
	require.NoError(t, err)
	out := Validate(d, map[string]any{"post_text": "Hello neighbors! What's your favorite scent?"})
	assert.True(t, out.Passed())
}

func TestValidateForbiddenPrefix(t *testing.T) {
	d, err := Builtin().Get("pinterest")
	require.NoError(t, err)
	keywords := make([]any, 16)
	for i := range keywords {
		keywords[i] = "keyword"
	}
	keywords[0] = "#travel"
	keywords[5] = "#sunset"
	out := Validate(d, map[string]any{
		"title":       "Breathtaking Ocean Sunset",
		"description": "Golden hour inspiration for your travel board.",
		"keywords":    keywords,
	})
	require.Len(t, out.Issues, 1)
	assert.Equal(t, types.RuleForbiddenPrefix, out.Issues[0].Rule)
	assert.Contains(t, out.Issues[0].Message, "#travel")
	assert.Contains(t, out.Issues[0].Message, "#sunset")
}

func TestValidateWrongTypes(t *testing.T) {
	d := instagramDescriptor(t)
	out := Validate(d, map[string]any{
		"caption":  42,
		"hashtags": "not a list",
		"alt_text": []any{"also", "wrong"},
	})
	require.Len(t, out.Issues, 3)
	for _, is := range out.Issues {
		assert.Equal(t, types.RuleFieldType, is.Rule)
	}
}

func TestValidatePrefixOffendersCappedAtThree(t *testing.T) {
	d := Descriptor{Name: "t", Fields: []Field{
		{Name: "hashtags", Type: FieldTextList, Required: true, RequiredPrefix: "#"},
	}}
	out := Validate(d, map[string]any{
		"hashtags": []any{"a", "b", "c", "d", "e"},
	})
	require.Len(t, out.Issues, 1)
	msg := out.Issues[0].Message
	assert.Contains(t, msg, "[a b c]")
	assert.NotContains(t, msg, "d")
}

func TestValidateIssueOrderIsDeclarationOrder(t *testing.T) {
	d := instagramDescriptor(t)
	candidate := map[string]any{
		"caption":  strings.Repeat("x", 3000),
		"hashtags": []any{"nope"},
		"alt_text": strings.Repeat("y", 200),
	}
	first := Validate(d, candidate)
	second := Validate(d, candidate)
	require.Equal(t, first, second)

	fields := make([]string, 0, len(first.Issues))
	for _, is := range first.Issues {
		fields = append(fields, is.Field)
	}
	assert.Equal(t, []string{"caption", "hashtags", "hashtags", "alt_text"}, fields)
}
