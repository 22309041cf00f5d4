// Package naming converts stylesheet selectors and variable names into
// JavaScript identifiers.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// reserved lists JavaScript words that cannot be used as binding names.
var reserved = map[string]struct{}{
	"break": {}, "case": {}, "catch": {}, "class": {}, "const": {}, "continue": {},
	"debugger": {}, "default": {}, "delete": {}, "do": {}, "else": {}, "enum": {},
	"export": {}, "extends": {}, "false": {}, "finally": {}, "for": {}, "function": {},
	"if": {}, "import": {}, "in": {}, "instanceof": {}, "new": {}, "null": {},
	"return": {}, "super": {}, "switch": {}, "this": {}, "throw": {}, "true": {},
	"try": {}, "typeof": {}, "var": {}, "void": {}, "while": {}, "with": {},
	"yield": {}, "let": {}, "static": {}, "await": {}, "css": {},
}

// Identifier normalizes a selector, placeholder or variable name into a
// lower-camel JavaScript identifier: `.primary-button` -> `primaryButton`,
// `%icon` -> `icon`, `$font-size-lg` -> `fontSizeLg`.
func Identifier(selector string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(selector), ".%$@&#")
	ident := CamelCase(trimmed)
	if ident == "" {
		return "_"
	}
	if unicode.IsDigit(rune(ident[0])) {
		ident = "_" + ident
	}
	if _, ok := reserved[ident]; ok {
		ident = "_" + ident
	}
	return ident
}

// CamelCase joins the words of s in lower-camel case. Words are separated by
// any non-alphanumeric rune and by lower-to-upper case transitions.
func CamelCase(s string) string {
	words := Words(s)
	if len(words) == 0 {
		return ""
	}
	lower := cases.Lower(language.Und)

	var b strings.Builder
	for i, word := range words {
		word = lower.String(word)
		if i > 0 {
			word = capitalize(word)
		}
		b.WriteString(word)
	}
	return b.String()
}

// capitalize upper-cases the first rune only, so `2x` stays `2x`.
func capitalize(word string) string {
	runes := []rune(word)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Words splits s into alphanumeric words.
func Words(s string) []string {
	runes := []rune(s)
	words := make([]string, 0, 4)
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := runes[i-1]
		switch {
		case unicode.IsLower(prev) && unicode.IsUpper(r):
			flush(i)
			start = i
		case unicode.IsUpper(prev) && unicode.IsUpper(r) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return words
}
