// Package naming resolves specification titles into the identifiers shared by
// generation and checking.
package naming

import (
	"strings"
	"unicode"
)

// Keywords are the BDD prefixes stripped from titles.
var Keywords = []string{"when", "given", "it"}

// Slug converts a title into its canonical identifier.
//
//	Slug("When first arg is smaller") == "first_arg_is_smaller"
//	Slug("It's working!")             == "its_working"
func Slug(title string) string {
	s := StripKeyword(strings.TrimSpace(title))

	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-':
			flush()
		}
	}
	flush()

	return strings.Join(tokens, "_")
}

// StripKeyword removes at most one leading keyword followed by a space.
func StripKeyword(s string) string {
	for _, kw := range Keywords {
		if len(s) > len(kw) && strings.EqualFold(s[:len(kw)], kw) && s[len(kw)] == ' ' {
			return strings.TrimLeft(s[len(kw):], " ")
		}
	}
	return s
}

// HasKeyword reports whether title starts with one of the given keywords.
func HasKeyword(title string, keywords ...string) bool {
	s := strings.TrimSpace(title)
	for _, kw := range keywords {
		if len(s) > len(kw) && strings.EqualFold(s[:len(kw)], kw) && s[len(kw)] == ' ' {
			return true
		}
	}
	return false
}

// TestID builds the name of a test unit from its action identifier and the
// last identifier of its enclosing helper path.
func TestID(lastHelper, action string) string {
	if lastHelper == "" {
		return "test_" + action
	}
	return "test_" + lastHelper + "_" + action
}

// Normalize folds a title for collision detection: keyword stripped,
// lower-cased, inner whitespace collapsed.
func Normalize(title string) string {
	s := StripKeyword(strings.TrimSpace(title))
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
