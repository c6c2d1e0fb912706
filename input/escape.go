package input

import "strings"

// isEscaped reports whether s[i] is preceded by an odd number of
// backslashes.
func isEscaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// firstUnescaped returns the index of the first occurrence of c in s that
// is not escaped by a backslash, or -1.
func firstUnescaped(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c && !isEscaped(s, i) {
			return i
		}
	}
	return -1
}

// unescape drops every backslash and keeps the character following it
// literally. A dangling backslash at the end is kept.
func unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	literal := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if literal {
			b.WriteByte(c)
			literal = false
			continue
		}
		if c == '\\' {
			literal = true
			continue
		}
		b.WriteByte(c)
	}
	if literal {
		b.WriteByte('\\')
	}
	return b.String()
}
