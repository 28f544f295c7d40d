// Package textutil holds Turkish-aware string helpers used for matching
// user input against stored names.
package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold lower-cases s with Turkish rules and collapses dotless ı into i, so
// "İleri", "ILERI" and "ileri" all compare equal.
func Fold(s string) string {
	lowered := cases.Lower(language.Turkish).String(strings.TrimSpace(s))
	return strings.ReplaceAll(lowered, "ı", "i")
}

// ContainsFold reports whether needle occurs in haystack after folding both
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}

// EqualFold reports whether a and b are equal after folding
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// Capitalize upper-cases the first letter and lower-cases the rest
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Turkish).String(s[:size]) + cases.Lower(language.Turkish).String(s[size:])
}

// Truncate shortens s to at most max runes, ending with "..."
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-3]) + "..."
}

// ArgsToName turns underscore-joined command arguments into a name
func ArgsToName(args []string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.Join(args, " "), "_", " "))
}
