// Package scoring computes the deterministic candidate score and the verification report.
// Both are pure functions of their inputs; the wall-clock forms only supply the current year.
package scoring

import (
	"encoding/json"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/candidate-intel/internal/types"
)

// Score weights
const (
	MustHaveWeight = 40
	SemanticWeight = 30
	RecencyMax     = 20
	ImpactWeight   = 10
)

const (
	semanticSaturation = 20
	impactSaturation   = 5
	minSharedWordLen   = 4
)

// impactVerbs are counted once per achievement that contains them
var impactVerbs = []string{
	"implemented", "built", "owned", "led", "created",
	"developed", "managed", "increased", "reduced", "improved",
}

// Score computes the breakdown against the current year
func Score(profile *types.CandidateProfile, reqs *types.RequirementSet) types.ScoreBreakdown {
	return ScoreAt(profile, reqs, time.Now())
}

// ScoreAt computes the breakdown with now as the reference for recency
func ScoreAt(profile *types.CandidateProfile, reqs *types.RequirementSet, now time.Time) types.ScoreBreakdown {
	if profile == nil {
		profile = &types.CandidateProfile{}
	}
	if reqs == nil {
		reqs = &types.RequirementSet{}
	}

	b := types.ScoreBreakdown{
		MustHaveScore: round2(mustHaveScore(profile, reqs)),
		SemanticScore: round2(semanticScore(profile, reqs)),
		RecencyScore:  round2(recencyScore(profile, now)),
		ImpactScore:   round2(impactScore(profile)),
	}
	b.OverallScore = round2(b.MustHaveScore + b.SemanticScore + b.RecencyScore + b.ImpactScore)
	return b
}

func mustHaveScore(profile *types.CandidateProfile, reqs *types.RequirementSet) float64 {
	if len(reqs.MustHave) == 0 {
		return 0
	}
	skills := make([]string, len(profile.Skills))
	for i, s := range profile.Skills {
		skills[i] = strings.ToLower(s)
	}

	matched := 0
	for _, m := range reqs.MustHave {
		lm := strings.ToLower(m)
		for _, s := range skills {
			if strings.Contains(s, lm) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(reqs.MustHave)) * MustHaveWeight
}

// semanticScore counts space-separated tokens of the serialized profile that are longer
// than three characters and occur in the serialized requirements
func semanticScore(profile *types.CandidateProfile, reqs *types.RequirementSet) float64 {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return 0
	}
	reqsJSON, err := json.Marshal(reqs)
	if err != nil {
		return 0
	}
	candidateText := strings.ToLower(string(profileJSON))
	jobText := strings.ToLower(string(reqsJSON))

	shared := 0
	for _, token := range strings.Split(candidateText, " ") {
		if utf8.RuneCountInString(token) >= minSharedWordLen && strings.Contains(jobText, token) {
			shared++
		}
	}
	return math.Min(1, float64(shared)/semanticSaturation) * SemanticWeight
}

func recencyScore(profile *types.CandidateProfile, now time.Time) float64 {
	if len(profile.Experience) == 0 {
		return 0
	}
	mostRecent := 0
	for _, exp := range profile.Experience {
		if y, ok := types.YearOf(exp.EndDate, now.Year()); ok && y > mostRecent {
			mostRecent = y
		}
	}

	switch yearsAgo := now.Year() - mostRecent; {
	case yearsAgo <= 5:
		return RecencyMax
	case yearsAgo <= 10:
		return RecencyMax / 2
	default:
		return RecencyMax / 4
	}
}

func impactScore(profile *types.CandidateProfile) float64 {
	count := 0
	for _, exp := range profile.Experience {
		for _, achievement := range exp.Achievements {
			lower := strings.ToLower(achievement)
			for _, verb := range impactVerbs {
				if strings.Contains(lower, verb) {
					count++
				}
			}
		}
	}
	return math.Min(1, float64(count)/impactSaturation) * ImpactWeight
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
