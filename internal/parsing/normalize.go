package parsing

import (
	"regexp"
	"strings"

	"github.com/jonathan/candidate-intel/internal/types"
)

// qualifierSuffixRegex matches trailing generic words such as "React frameworks" or "Agile practices"
var qualifierSuffixRegex = regexp.MustCompile(`(?i)\s+(frameworks?|practices?|methodology|methodologies|techniques?|skills?|development)\s*$`)

// NormalizeSkillName trims a requirement term and strips trailing qualifier words
func NormalizeSkillName(skill string) string {
	normalized := strings.TrimSpace(skill)
	for {
		stripped := strings.TrimSpace(qualifierSuffixRegex.ReplaceAllString(normalized, ""))
		if stripped == normalized || stripped == "" {
			return normalized
		}
		normalized = stripped
	}
}

// NormalizeRequirements strips qualifier words from skills and must-haves and collapses
// case-insensitive duplicates in every list to their first spelling. It is idempotent.
func NormalizeRequirements(reqs types.RequirementSet) types.RequirementSet {
	return types.RequirementSet{
		Skills:     dedupFold(reqs.Skills, NormalizeSkillName),
		MustHave:   dedupFold(reqs.MustHave, NormalizeSkillName),
		Experience: dedupFold(reqs.Experience, strings.TrimSpace),
		Education:  dedupFold(reqs.Education, strings.TrimSpace),
	}
}

// dedupFold maps each entry, drops empties and keeps the first spelling of each lowercased value
func dedupFold(items []string, normalize func(string) string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		n := normalize(item)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
