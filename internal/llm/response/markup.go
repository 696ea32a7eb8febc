package response

import "strings"

const fence = "```"

// CleanMarkup strips a leading code fence opener (with an optional language
// tag) and a trailing fence closer, then trims whitespace. It repeats until
// nothing changes, so applying it twice equals applying it once.
func CleanMarkup(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		next := stripFences(s)
		if next == s {
			return s
		}
		s = next
	}
}

func stripFences(s string) string {
	if strings.HasPrefix(s, fence) {
		rest := s[len(fence):]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && isLanguageTag(rest[:nl]) {
			rest = rest[nl+1:]
		}
		s = rest
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

func isLanguageTag(s string) bool {
	s = strings.TrimSpace(s)
	return !strings.ContainsAny(s, " \t<>{}\"'")
}
