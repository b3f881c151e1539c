package vectorized

import (
	"strings"
)

// compileLike turns a SQL LIKE pattern into a matcher. % matches any
// sequence, _ matches exactly one character. There is no escape
// character.
func compileLike(pattern string) func(string) bool {
	if !strings.ContainsAny(pattern, "%_") {
		return func(s string) bool { return s == pattern }
	}
	if strings.Contains(pattern, "_") {
		p := []rune(pattern)
		return func(s string) bool { return wildcardMatch([]rune(s), p) }
	}

	parts := strings.Split(pattern, "%")
	first, last := parts[0], parts[len(parts)-1]
	middle := parts[1 : len(parts)-1]
	switch {
	case len(parts) == 2 && last == "":
		return func(s string) bool { return strings.HasPrefix(s, first) }
	case len(parts) == 2 && first == "":
		return func(s string) bool { return strings.HasSuffix(s, last) }
	case len(parts) == 3 && first == "" && last == "":
		return func(s string) bool { return strings.Contains(s, middle[0]) }
	}

	return func(s string) bool {
		if len(s) < len(first)+len(last) || !strings.HasPrefix(s, first) || !strings.HasSuffix(s, last) {
			return false
		}
		// prefix and suffix must not overlap the middle segments
		window := s[len(first) : len(s)-len(last)]
		for _, seg := range middle {
			if seg == "" {
				continue
			}
			pos := strings.Index(window, seg)
			if pos == -1 {
				return false
			}
			window = window[pos+len(seg):]
		}
		return true
	}
}

// wildcardMatch is the general matcher used when the pattern has _.
func wildcardMatch(s, p []rune) bool {
	si, pi := 0, 0
	star, mark := -1, 0
	for si < len(s) {
		switch {
		case pi < len(p) && p[pi] == '%':
			star, mark = pi, si
			pi++
		case pi < len(p) && (p[pi] == '_' || p[pi] == s[si]):
			si++
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '%' {
		pi++
	}
	return pi == len(p)
}

// MatchLike reports whether s matches the LIKE pattern.
func MatchLike(s, pattern string) bool {
	return compileLike(pattern)(s)
}
