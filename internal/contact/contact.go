// Package contact turns user-entered Philippine mobile numbers into the
// canonical national form ("09171234567") used as the account key.
package contact

import (
	"strings"
	"unicode"
)

// Normalize returns the canonical form of s: separators and whitespace are
// removed, a leading "+" is dropped and the "63" country prefix becomes "0".
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
		case r == '-' || r == '(' || r == ')' || r == '.':
		default:
			b.WriteRune(r)
		}
	}

	out := strings.TrimLeft(b.String(), "+")
	if strings.HasPrefix(out, "63") {
		out = "0" + out[2:]
	}
	return out
}

// Valid reports whether s normalizes to an 11-digit number starting with 0.
func Valid(s string) bool {
	n := Normalize(s)
	if len(n) != 11 || n[0] != '0' {
		return false
	}
	for _, r := range n {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
