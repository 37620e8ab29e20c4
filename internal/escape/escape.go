// Package escape neutralizes characters that are unsafe in the emitted markup.
//
// Two independent concerns are covered. HostMarkup protects HTML attribute
// values and text content. TemplateSyntax additionally protects against the
// Svelte compiler, which treats bare braces as interpolation.
//
// An ampersand that already starts a well-formed character reference is kept
// as is, so both functions are idempotent on their own output.
package escape

import "strings"

var hostReplacements = map[byte]string{
	'&': "&amp;",
	'<': "&lt;",
	'>': "&gt;",
	'"': "&quot;",
}

var templateReplacements = map[byte]string{
	'&': "&amp;",
	'<': "&lt;",
	'>': "&gt;",
	'"': "&quot;",
	'{': "&lcub;",
	'}': "&rcub;",
}

// HostMarkup replaces & < > and " with their named entity forms.
func HostMarkup(s string) string {
	return replace(s, hostReplacements, "&<>\"")
}

// TemplateSyntax replaces the host markup characters plus { and }.
func TemplateSyntax(s string) string {
	return replace(s, templateReplacements, "&<>\"{}")
}

// UnescapeTemplateSyntax turns &lcub; and &rcub; back into braces and leaves
// every other entity untouched.
func UnescapeTemplateSyntax(s string) string {
	if !strings.Contains(s, "&lcub;") && !strings.Contains(s, "&rcub;") {
		return s
	}
	return braceUnescaper.Replace(s)
}

var braceUnescaper = strings.NewReplacer("&lcub;", "{", "&rcub;", "}")

func replace(s string, table map[byte]string, set string) string {
	if !strings.ContainsAny(s, set) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '&' && referenceLength(s[i:]) > 0 {
			b.WriteByte(c)
			continue
		}
		if r, ok := table[c]; ok {
			b.WriteString(r)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// referenceLength reports the length of the character reference at the start
// of s (&name; &#123; &#x1F;), or 0 if s does not start with one.
func referenceLength(s string) int {
	if len(s) < 3 || s[0] != '&' {
		return 0
	}
	i := 1
	switch {
	case s[1] == '#':
		i = 2
		hex := false
		if i < len(s) && (s[i] == 'x' || s[i] == 'X') {
			hex = true
			i++
		}
		start := i
		for i < len(s) && (isDigit(s[i]) || (hex && isHexLetter(s[i]))) {
			i++
		}
		if i == start {
			return 0
		}
	case isLetter(s[1]):
		for i < len(s) && (isLetter(s[i]) || isDigit(s[i])) {
			i++
		}
	default:
		return 0
	}
	if i >= len(s) || s[i] != ';' {
		return 0
	}
	return i + 1
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isLetter(c byte) bool    { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isHexLetter(c byte) bool { return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
