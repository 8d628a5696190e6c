// Package gnu orders version strings the way dpkg and "sort -V" do, so
// versions such as "2.15.05" or "1.0~rc1" compare sensibly.
package gnu

import "strings"

// Compare returns a negative number, zero or a positive number when a sorts
// before, equal to or after b. Digit runs compare by value; other runs
// compare character by character with '~' sorting before everything,
// including the end of the string.
func Compare(a, b string) int {
	for a != "" || b != "" {
		var x, y string
		x, a = span(a, notDigit)
		y, b = span(b, notDigit)
		if c := compareText(x, y); c != 0 {
			return c
		}
		x, a = span(a, isDigit)
		y, b = span(b, isDigit)
		if c := compareNumber(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func span(s string, f func(byte) bool) (head, rest string) {
	i := 0
	for i < len(s) && f(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func compareText(a, b string) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		if c := weight(a, i) - weight(b, i); c != 0 {
			return c
		}
	}
	return 0
}

// weight ranks the byte at s[i]: '~' first, then the end of the run, then
// letters, then every other symbol.
func weight(s string, i int) int {
	if i >= len(s) {
		return 0
	}
	switch c := s[i]; {
	case c == '~':
		return -1
	case isAlpha(c):
		return int(c)
	default:
		return int(c) + 256
	}
}

func compareNumber(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func notDigit(c byte) bool { return !isDigit(c) }
func isAlpha(c byte) bool  { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
