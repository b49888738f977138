// Package evidence links extracted profile fields back to entity spans in the source text.
package evidence

import (
	"strings"

	"github.com/jonathan/candidate-intel/internal/types"
)

// preferredType is tried before falling back to any entity type. Location has no entity type.
var preferredType = map[string]types.EntityType{
	"name":     types.EntityPerson,
	"email":    types.EntityEmail,
	"phone":    types.EntityPhone,
	"linkedin": types.EntityLinkedIn,
}

// minDigitsForPhoneMatch keeps digit-only comparison from matching years
const minDigitsForPhoneMatch = 7

// Bind maps each non-nil personal field to the first entity whose value contains the field
// value or is contained by it, case-insensitively. Entities whose offsets do not address
// their value in text are ignored. Fields without a match get no entry.
func Bind(profile *types.CandidateProfile, ents []types.Entity, text string) types.EvidenceMap {
	out := make(types.EvidenceMap)
	if profile == nil {
		return out
	}

	valid := make([]types.Entity, 0, len(ents))
	for _, e := range ents {
		if anchored(e, text) {
			valid = append(valid, e)
		}
	}

	for field, value := range profile.Personal.PersonalFields() {
		if e, ok := find(field, value, valid); ok {
			out[field] = types.Evidence{
				Value:         e.Value,
				StartOffset:   e.StartOffset,
				EndOffset:     e.EndOffset,
				ContextWindow: e.ContextWindow,
				Confidence:    e.Confidence,
			}
		}
	}
	return out
}

func find(field, value string, ents []types.Entity) (types.Entity, bool) {
	if kind, ok := preferredType[field]; ok {
		for _, e := range ents {
			if e.Type == kind && matches(field, value, e.Value) {
				return e, true
			}
		}
	}
	for _, e := range ents {
		if matches(field, value, e.Value) {
			return e, true
		}
	}
	return types.Entity{}, false
}

func matches(field, fieldValue, entityValue string) bool {
	f := strings.ToLower(strings.TrimSpace(fieldValue))
	e := strings.ToLower(strings.TrimSpace(entityValue))
	if f == "" || e == "" {
		return false
	}
	if strings.Contains(e, f) || strings.Contains(f, e) {
		return true
	}
	if field == "phone" {
		fd, ed := digits(f), digits(e)
		if len(fd) >= minDigitsForPhoneMatch && len(ed) >= minDigitsForPhoneMatch {
			return strings.Contains(ed, fd) || strings.Contains(fd, ed)
		}
	}
	return false
}

func anchored(e types.Entity, text string) bool {
	if text == "" {
		return true
	}
	if e.StartOffset < 0 || e.EndOffset > len(text) || e.StartOffset >= e.EndOffset {
		return false
	}
	return text[e.StartOffset:e.EndOffset] == e.Value
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
