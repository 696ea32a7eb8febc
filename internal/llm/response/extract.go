// Package response recovers structured values and clean markup from free-text
// model output.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"pagesmith/internal/apperr"
)

const snippetLen = 200

var (
	ErrNoObject = errors.New("no JSON object found")
)

// ExtractJSON decodes the text between the first '{' and the last '}' of raw
// into v.
//
// This is a heuristic, not a bracket matcher. Leading and trailing prose is
// ignored, but:
//   - two separate objects in one reply span into a single invalid document;
//   - a '}' inside prose after the object, or inside a later string literal,
//     moves the end of the span and usually fails decoding;
//   - a reply with no '{' or no '}' after it fails with ErrNoObject.
//
// Every failure is an *apperr.MalformedResponseError.
func ExtractJSON(raw string, v any) error {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return malformed(raw, ErrNoObject)
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return malformed(raw, err)
	}
	return nil
}

// ExtractJSONValue is ExtractJSON into a generic object.
func ExtractJSONValue(raw string) (map[string]any, error) {
	var out map[string]any
	if err := ExtractJSON(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func malformed(raw string, err error) error {
	return &apperr.MalformedResponseError{Snippet: Snippet(raw), Err: fmt.Errorf("extract json: %w", err)}
}

// Snippet returns at most the first 200 bytes of raw, cut back to a rune
// boundary.
func Snippet(raw string) string {
	if len(raw) <= snippetLen {
		return raw
	}
	cut := raw[:snippetLen]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
