package processors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestKeyMatcherPrefixes(t *testing.T) {
	m := newKeyMatcher([]string{" Status ", "name", ""})

	assert.True(t, m.important("StatusCode"))
	assert.True(t, m.important("NameServers"))
	assert.True(t, m.important("name"))
	assert.False(t, m.important("Region"))
	assert.False(t, m.important(""))
}

func TestKeyMatcherDefaults(t *testing.T) {
	m := newKeyMatcher(nil)

	assert.True(t, m.important("ErrorMessage"))
	assert.True(t, m.important("Tags"))
	assert.True(t, m.important("arn"))
	assert.False(t, m.important("CreatedAt"))
}

func TestSummarizeJSONDeepCollapsesPastMaxDepth(t *testing.T) {
	v := gjson.Parse(`{"a": {"b": {"c": 1, "d": 2}}}`)
	got := summarizeJSONDeep(v, 2, newKeyMatcher([]string{"zzz"}))

	want := strings.Join([]string{
		"{",
		`  "a": {`,
		`    "b": "{... 2 keys}"`,
		"  }",
		"}",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestSummarizeJSONDeepImportantKeysGoDeeper(t *testing.T) {
	v := gjson.Parse(`{"error": {"deep": {"deeper": 1}}, "info": {"deep": {"deeper": 1}}}`)
	got := summarizeJSONDeep(v, 1, newKeyMatcher([]string{"error"}))

	want := strings.Join([]string{
		"{",
		`  "error": {`,
		`    "deep": {`,
		`      "deeper": 1`,
		"    }",
		"  },",
		`  "info": "{... 1 keys}"`,
		"}",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestSummarizeJSONDeepTruncatesLongArrays(t *testing.T) {
	v := gjson.Parse(`{"rows": [1, 2, 3, 4, 5, 6, 7]}`)
	got := summarizeJSONDeep(v, 3, newKeyMatcher([]string{"zzz"}))

	want := strings.Join([]string{
		"{",
		`  "rows": [`,
		"    1,",
		"    2,",
		"    3,",
		`    "... (4 more items)"`,
		"  ]",
		"}",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestSummarizeJSONDeepKeepsShortArrays(t *testing.T) {
	v := gjson.Parse(`[true, false]`)
	got := summarizeJSONDeep(v, 3, newKeyMatcher([]string{"zzz"}))

	want := strings.Join([]string{
		"[",
		"  true,",
		"  false",
		"]",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestSummarizeJSONDeepCapsStrings(t *testing.T) {
	v := gjson.Parse(`"` + strings.Repeat("x", 250) + `"`)
	got := summarizeJSONDeep(v, 3, newKeyMatcher([]string{"zzz"}))

	assert.Equal(t, `"`+strings.Repeat("x", 197)+`..."`, got)
}

func TestSummarizeJSONCompactNestedObjects(t *testing.T) {
	lim := compactLimits{maxInline: 5, headItems: 3, strMax: 50, strKeep: 30}
	v := gjson.Parse(`{"a": {"b": {"c": 1}}}`)

	want := strings.Join([]string{
		"{",
		`  "a": {`,
		`    "b": {1 keys}`,
		"  }",
		"}",
	}, "\n")
	assert.Equal(t, want, summarizeJSONCompact(v, 0, 2, lim))
}

func TestSummarizeJSONCompactArrays(t *testing.T) {
	lim := compactLimits{maxInline: 5, headItems: 3, strMax: 50, strKeep: 30}

	long := gjson.Parse(`[1, 2, 3, 4, 5, 6, 7, 8]`)
	assert.Equal(t, "[1, 2, 3, ... (8 items total)]", summarizeJSONCompact(long, 0, 2, lim))

	short := gjson.Parse(`[1, 2, 3]`)
	assert.Equal(t, "[1, 2, 3]", summarizeJSONCompact(short, 0, 2, lim))

	empty := gjson.Parse(`[]`)
	assert.Equal(t, "[]", summarizeJSONCompact(empty, 0, 2, lim))
}

func TestSummarizeJSONCompactClipsStrings(t *testing.T) {
	lim := compactLimits{maxInline: 5, headItems: 3, strMax: 50, strKeep: 30}

	v := gjson.Parse(`"` + strings.Repeat("a", 60) + `"`)
	want := `"` + strings.Repeat("a", 30) + `..." (60 chars)`
	assert.Equal(t, want, summarizeJSONCompact(v, 0, 2, lim))

	short := gjson.Parse(`"fits"`)
	assert.Equal(t, `"fits"`, summarizeJSONCompact(short, 0, 2, lim))
}

func TestSummarizeJSONCompactScalars(t *testing.T) {
	lim := compactLimits{maxInline: 5, headItems: 3, strMax: 50, strKeep: 30}

	assert.Equal(t, "42", summarizeJSONCompact(gjson.Parse("42"), 0, 2, lim))
	assert.Equal(t, "true", summarizeJSONCompact(gjson.Parse("true"), 0, 2, lim))
	assert.Equal(t, "null", summarizeJSONCompact(gjson.Parse("null"), 0, 2, lim))
}
