package scoring

import (
	"testing"
	"time"

	"github.com/jonathan/candidate-intel/internal/types"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestScoreAt(t *testing.T) {
	profile := &types.CandidateProfile{
		Skills: []string{"Python 3", "Docker"},
		Experience: []types.Experience{{
			Company:      "Acme",
			Role:         "Engineer",
			StartDate:    "2019",
			EndDate:      "Present",
			Achievements: []string{"Built and improved billing", "Led migration"},
		}},
	}
	reqs := &types.RequirementSet{MustHave: []string{"python", "kubernetes"}}

	got := ScoreAt(profile, reqs, now)

	assert.Equal(t, 20.0, got.MustHaveScore, "one of two must-haves")
	assert.Equal(t, 20.0, got.RecencyScore)
	assert.Equal(t, 6.0, got.ImpactScore, "three impact verbs")
	assert.GreaterOrEqual(t, got.SemanticScore, 0.0)
	assert.LessOrEqual(t, got.SemanticScore, 30.0)
	assert.InDelta(t, got.MustHaveScore+got.SemanticScore+got.RecencyScore+got.ImpactScore, got.OverallScore, 0.001)
}

func TestScoreAt_MustHave(t *testing.T) {
	tests := []struct {
		name     string
		skills   []string
		mustHave []string
		want     float64
	}{
		{name: "all matched", skills: []string{"Python", "SQL"}, mustHave: []string{"Python"}, want: 40},
		{name: "substring of skill", skills: []string{"PostgreSQL"}, mustHave: []string{"sql"}, want: 40},
		{name: "none", skills: []string{"Go"}, mustHave: []string{"Python", "Java", "Rust"}, want: 0},
		{name: "one of three", skills: []string{"Go"}, mustHave: []string{"go", "Java", "Rust"}, want: 13.33},
		{name: "empty must-have", skills: []string{"Go"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreAt(&types.CandidateProfile{Skills: tt.skills}, &types.RequirementSet{MustHave: tt.mustHave}, now)
			assert.Equal(t, tt.want, got.MustHaveScore)
		})
	}
}

func TestScoreAt_Semantic(t *testing.T) {
	profile := &types.CandidateProfile{Summary: "distributed systems engineering"}
	reqs := &types.RequirementSet{Skills: []string{"distributed systems engineering"}}

	got := ScoreAt(profile, reqs, now)
	assert.Equal(t, 1.5, got.SemanticScore, "one shared inner token of twenty")
}

func TestScoreAt_Recency(t *testing.T) {
	tests := []struct {
		name string
		ends []string
		want float64
	}{
		{name: "no experience", want: 0},
		{name: "ongoing", ends: []string{"Present"}, want: 20},
		{name: "five years ago", ends: []string{"2021"}, want: 20},
		{name: "six years ago", ends: []string{"2020"}, want: 10},
		{name: "most recent wins", ends: []string{"2010", "Jan 2019"}, want: 10},
		{name: "old", ends: []string{"2014"}, want: 5},
		{name: "unreadable", ends: []string{""}, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &types.CandidateProfile{}
			for _, end := range tt.ends {
				profile.Experience = append(profile.Experience, types.Experience{EndDate: end})
			}
			assert.Equal(t, tt.want, ScoreAt(profile, &types.RequirementSet{}, now).RecencyScore)
		})
	}
}

func TestScoreAt_ImpactSaturates(t *testing.T) {
	profile := &types.CandidateProfile{Experience: []types.Experience{{
		EndDate:      "2025",
		Achievements: []string{"Implemented, built, owned, created and developed", "Managed and reduced costs"},
	}}}
	assert.Equal(t, 10.0, ScoreAt(profile, &types.RequirementSet{}, now).ImpactScore)
}

func TestScoreAt_PureAndBounded(t *testing.T) {
	profiles := []*types.CandidateProfile{
		nil,
		{},
		{Skills: []string{"Go", "Python", "Kubernetes"}, Summary: "Platform engineer building distributed systems"},
		{Experience: []types.Experience{{EndDate: "1999", Achievements: []string{"led", "built", "improved"}}}},
	}
	reqs := &types.RequirementSet{Skills: []string{"Go", "distributed systems"}, MustHave: []string{"Go"}}

	for _, p := range profiles {
		first := ScoreAt(p, reqs, now)
		assert.Equal(t, first, ScoreAt(p, reqs, now))

		assert.True(t, first.MustHaveScore >= 0 && first.MustHaveScore <= 40)
		assert.True(t, first.SemanticScore >= 0 && first.SemanticScore <= 30)
		assert.True(t, first.RecencyScore >= 0 && first.RecencyScore <= 20)
		assert.True(t, first.ImpactScore >= 0 && first.ImpactScore <= 10)
		assert.InDelta(t, first.MustHaveScore+first.SemanticScore+first.RecencyScore+first.ImpactScore, first.OverallScore, 0.001)
	}
}
