package matching

import "github.com/jonathan/candidate-intel/internal/types"

// softSkills never count as additional skills. A soft skill the requirements name is
// part of the universe and lands in matched or missing instead.
var softSkills = map[string]bool{
	"communication":         true,
	"communication skills":  true,
	"teamwork":              true,
	"team player":           true,
	"collaboration":         true,
	"leadership":            true,
	"problem solving":       true,
	"problem-solving":       true,
	"critical thinking":     true,
	"time management":       true,
	"adaptability":          true,
	"creativity":            true,
	"attention to detail":   true,
	"interpersonal skills":  true,
	"work ethic":            true,
	"self-motivated":        true,
	"multitasking":          true,
	"organizational skills": true,
	"presentation skills":   true,
	"customer service":      true,
}

// Reconcile builds a result from the requirement universe and the service's matched and
// additional lists. Requirements are compared by types.FoldKey, so case and parenthetical
// acronyms are ignored. Requirements the service did not mark matched are missing.
func Reconcile(universe, serviceMatched, serviceAdditional []string) *types.SkillMatchResult {
	matchedKeys := make(map[string]bool, len(serviceMatched))
	for _, s := range serviceMatched {
		matchedKeys[types.FoldKey(s)] = true
	}

	result := &types.SkillMatchResult{
		MatchedSkills:    []string{},
		MissingSkills:    []string{},
		AdditionalSkills: []string{},
	}

	universeKeys := make(map[string]bool, len(universe))
	seen := make(map[string]bool, len(universe))
	for _, req := range universe {
		key := types.FoldKey(req)
		universeKeys[key] = true
		if seen[key] {
			continue
		}
		seen[key] = true
		if matchedKeys[key] {
			result.MatchedSkills = append(result.MatchedSkills, req)
		} else {
			result.MissingSkills = append(result.MissingSkills, req)
		}
	}

	added := make(map[string]bool)
	for _, s := range serviceAdditional {
		key := types.FoldKey(s)
		if key == "" || universeKeys[key] || softSkills[key] || added[key] {
			continue
		}
		added[key] = true
		result.AdditionalSkills = append(result.AdditionalSkills, s)
	}
	return result
}
