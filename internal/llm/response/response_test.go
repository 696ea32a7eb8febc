package response

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesmith/internal/apperr"
)

func TestExtractJSON_FencedWithProse(t *testing.T) {
	got, err := ExtractJSONValue("Sure! ```json\n{\"a\":1}\n```")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, got)
}

func TestExtractJSON_IntoStruct(t *testing.T) {
	var out struct {
		Features []string `json:"features"`
	}
	raw := "Here is the analysis:\n{\"features\": [\"task creation\", \"filtering\"]}\nLet me know if you need more."
	require.NoError(t, ExtractJSON(raw, &out))
	assert.Equal(t, []string{"task creation", "filtering"}, out.Features)
}

func TestExtractJSON_NestedObjects(t *testing.T) {
	got, err := ExtractJSONValue(`{"outer": {"inner": {"x": true}}}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"outer": map[string]any{"inner": map[string]any{"x": true}}}, got)
}

func TestExtractJSON_BoundaryFailures(t *testing.T) {
	cases := map[string]string{
		"no braces":               "I cannot help with that.",
		"only opening brace":      "{ oops",
		"closing before open":     "} then {",
		"two objects":             `first {"a":1} and second {"b":2}`,
		"brace in trailing prose": `{"a":1} hope this helps :}`,
		"truncated":               `{"a": [1, 2}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ExtractJSONValue(raw)
			var malformed *apperr.MalformedResponseError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, apperr.KindMalformedResponse, apperr.Kind(err))
		})
	}
}

func TestExtractJSON_BraceInsideStringLiteral(t *testing.T) {
	got, err := ExtractJSONValue(`{"template": "function() { return 1; }"}`)
	require.NoError(t, err)
	assert.Equal(t, "function() { return 1; }", got["template"])
}

func TestExtractJSON_NoObjectSentinel(t *testing.T) {
	err := ExtractJSON("nothing here", &map[string]any{})
	assert.ErrorIs(t, err, ErrNoObject)
}

func TestExtractJSON_Idempotent(t *testing.T) {
	inputs := []string{
		"Sure! ```json\n{\"a\":1}\n```",
		`prefix {"features": ["a", "b"], "technical_requirements": {"responsive": true}} suffix`,
	}
	for _, raw := range inputs {
		first, err := ExtractJSONValue(raw)
		require.NoError(t, err)

		encoded, err := json.Marshal(first)
		require.NoError(t, err)

		second, err := ExtractJSONValue(string(encoded))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestCleanMarkup(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  <html></html>\n", "<html></html>"},
		{"html fence", "```html\n<!DOCTYPE html>\n<html></html>\n```", "<!DOCTYPE html>\n<html></html>"},
		{"bare fence", "```\n<p>hi</p>\n```\n", "<p>hi</p>"},
		{"opener only", "```html\n<p>hi</p>", "<p>hi</p>"},
		{"closer only", "<p>hi</p>\n```", "<p>hi</p>"},
		{"markup on opener line", "```<p>hi</p>```", "<p>hi</p>"},
		{"double fenced", "```\n```html\n<p>x</p>\n```\n```", "<p>x</p>"},
		{"inner fences kept", "<pre>```code```</pre>", "<pre>```code```</pre>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanMarkup(tc.in))
		})
	}
}

func TestCleanMarkup_Idempotent(t *testing.T) {
	inputs := []string{
		"```html\n<html><body>x</body></html>\n```",
		"```\n```html\n<p>x</p>\n```\n```",
		"   text   ",
		"```",
		"",
	}
	for _, in := range inputs {
		once := CleanMarkup(in)
		assert.Equal(t, once, CleanMarkup(once), in)
	}
}

func TestSnippet_CutsOnRuneBoundary(t *testing.T) {
	assert.Equal(t, "short", Snippet("short"))

	raw := strings.Repeat("a", 199) + "é" + strings.Repeat("b", 50)
	got := Snippet(raw)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 199), got)

	_, err := ExtractJSONValue(strings.Repeat("ü", 300))
	var merr *apperr.MalformedResponseError
	require.ErrorAs(t, err, &merr)
	assert.True(t, utf8.ValidString(merr.Snippet))
	assert.Len(t, merr.Snippet, 200)
}
