package types

import (
	"regexp"
	"strings"
)

var (
	parenAcronymRegex = regexp.MustCompile(`\s*\([^)]*\)`)
	foldSpaceRegex    = regexp.MustCompile(`\s+`)
)

// FoldKey returns the comparison key for a skill or requirement term: lowercased,
// parenthetical acronyms removed and whitespace collapsed.
// "Certified Scrum Master (CSM)" and "certified scrum master" share a key.
func FoldKey(s string) string {
	s = parenAcronymRegex.ReplaceAllString(s, "")
	s = foldSpaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
	return strings.ToLower(s)
}
