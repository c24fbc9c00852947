package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSpan_BareObject(t *testing.T) {
	span, err := JSONSpan(`{"name": "Jane"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"name": "Jane"}`, span)
}

func TestJSONSpan_BareArray(t *testing.T) {
	span, err := JSONSpan(`[{"name": "Jane"}]`)
	require.NoError(t, err)
	assert.Equal(t, `[{"name": "Jane"}]`, span)
}

func TestJSONSpan_ProseAroundObject(t *testing.T) {
	text := "Here is the extracted data:\n{\"name\": \"Jane\"}\nLet me know if you need anything else."
	span, err := JSONSpan(text)
	require.NoError(t, err)
	assert.Equal(t, `{"name": "Jane"}`, span)
}

func TestJSONSpan_MarkdownFence(t *testing.T) {
	text := "```json\n{\"name\": \"Jane\"}\n```"
	span, err := JSONSpan(text)
	require.NoError(t, err)
	assert.Equal(t, `{"name": "Jane"}`, span)
}

func TestJSONSpan_PlainFence(t *testing.T) {
	text := "```\n[1, 2, 3]\n```"
	span, err := JSONSpan(text)
	require.NoError(t, err)
	assert.Equal(t, `[1, 2, 3]`, span)
}

func TestJSONSpan_NestedBraces(t *testing.T) {
	text := `{"outer": {"inner": "value"}}`
	span, err := JSONSpan(text)
	require.NoError(t, err)
	assert.Equal(t, text, span)
}

func TestJSONSpan_ArrayBeforeObject(t *testing.T) {
	text := `[{"a": 1}, {"b": 2}]`
	span, err := JSONSpan(text)
	require.NoError(t, err)
	assert.Equal(t, text, span)
}

func TestJSONSpan_NoJSON(t *testing.T) {
	for _, text := range []string{
		"",
		"I could not find any structured data on this page.",
		"Sorry, the page appears to be empty.",
	} {
		_, err := JSONSpan(text)
		assert.ErrorIs(t, err, ErrNoJSON, "input: %q", text)
	}
}

func TestJSONSpan_UnclosedBracket(t *testing.T) {
	_, err := JSONSpan(`the { was never closed`)
	assert.ErrorIs(t, err, ErrNoJSON)
}
