// Package entities finds offset-tagged primitive entities (emails, phones,
// LinkedIn handles, dates and a person name) in plain document text.
package entities

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/candidate-intel/internal/types"
)

// ContextRadius is the number of bytes kept on each side of an entity
const ContextRadius = 30

// personLineLimit is how many leading lines are searched for a name
const personLineLimit = 10

// minPhoneDigits rejects short numeric runs such as years and ZIP codes
const minPhoneDigits = 7

// Confidence is a static property of the entity type
var Confidence = map[types.EntityType]float64{
	types.EntityEmail:    0.95,
	types.EntityPhone:    0.90,
	types.EntityLinkedIn: 0.98,
	types.EntityDate:     0.80,
	types.EntityPerson:   0.85,
}

type pattern struct {
	kind   types.EntityType
	re     *regexp.Regexp
	accept func(string) bool
}

// patterns are listed in priority order; a match overlapping an earlier accepted span is dropped
var patterns = []pattern{
	{kind: types.EntityEmail, re: regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
	{kind: types.EntityPhone, re: regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`), accept: hasPhoneDigits},
	{kind: types.EntityLinkedIn, re: regexp.MustCompile(`(?i)linkedin\.com/in/[\w-]+`)},
	{kind: types.EntityDate, re: regexp.MustCompile(`\b\d{4}\b|\b\d{1,2}/\d{4}\b|\b\w+[ \t]+\d{4}\b`)},
}

var (
	personLineRegex = regexp.MustCompile(`^[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,3}$`)
	yearRegex       = regexp.MustCompile(`^(19|20)\d{2}$`)
	personStopwords = regexp.MustCompile(`(?i)\b(company|corporation|inc|ltd|llc|university|college|school|institute|resume|curriculum|vitae|cv)\b`)
)

var priority = map[types.EntityType]int{
	types.EntityEmail:    0,
	types.EntityPhone:    1,
	types.EntityLinkedIn: 2,
	types.EntityDate:     3,
	types.EntityPerson:   4,
}

// Extract returns every entity in text, ordered by start offset.
// It is deterministic and returns an empty, non-nil slice for empty text.
func Extract(text string) []types.Entity {
	out := make([]types.Entity, 0)
	if text == "" {
		return out
	}

	var taken [][2]int
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			value := text[loc[0]:loc[1]]
			if p.accept != nil && !p.accept(value) {
				continue
			}
			if overlaps(taken, loc[0], loc[1]) {
				continue
			}
			taken = append(taken, [2]int{loc[0], loc[1]})
			out = append(out, newEntity(text, p.kind, value, loc[0], loc[1]))
		}
	}

	if person, ok := findPerson(text); ok {
		out = append(out, person)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartOffset != out[j].StartOffset {
			return out[i].StartOffset < out[j].StartOffset
		}
		return priority[out[i].Type] < priority[out[j].Type]
	})
	return out
}

// OfType returns the entities of one type, preserving order
func OfType(ents []types.Entity, kind types.EntityType) []types.Entity {
	var out []types.Entity
	for _, e := range ents {
		if e.Type == kind {
			out = append(out, e)
		}
	}
	return out
}

// First returns the first entity of a type
func First(ents []types.Entity, kind types.EntityType) (types.Entity, bool) {
	for _, e := range ents {
		if e.Type == kind {
			return e, true
		}
	}
	return types.Entity{}, false
}

// findPerson returns the first of the leading lines that looks like a 2-4 word name
func findPerson(text string) (types.Entity, bool) {
	offset := 0
	for i, line := range strings.SplitAfter(text, "\n") {
		if i >= personLineLimit {
			break
		}
		lineStart := offset
		offset += len(line)

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !personLineRegex.MatchString(trimmed) || personStopwords.MatchString(trimmed) {
			continue
		}
		start := lineStart + strings.Index(line, trimmed)
		return newEntity(text, types.EntityPerson, trimmed, start, start+len(trimmed)), true
	}
	return types.Entity{}, false
}

func newEntity(text string, kind types.EntityType, value string, start, end int) types.Entity {
	return types.Entity{
		Type:          kind,
		Value:         value,
		StartOffset:   start,
		EndOffset:     end,
		ContextWindow: contextWindow(text, start, end),
		Confidence:    Confidence[kind],
	}
}

// contextWindow clips ±ContextRadius bytes around [start, end) to text bounds
// without splitting a UTF-8 sequence
func contextWindow(text string, start, end int) string {
	lo := max(0, start-ContextRadius)
	hi := min(len(text), end+ContextRadius)
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return text[lo:hi]
}

func overlaps(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

// hasPhoneDigits rejects short runs and runs made only of years ("2015 2019")
func hasPhoneDigits(s string) bool {
	groups := strings.FieldsFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	n := 0
	allYears := true
	for _, g := range groups {
		n += len(g)
		if !yearRegex.MatchString(g) {
			allYears = false
		}
	}
	return n >= minPhoneDigits && !allYears
}
