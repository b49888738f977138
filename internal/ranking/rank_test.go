package ranking

import (
	"context"
	"fmt"
	"testing"

	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/llm/llmtest"
	"github.com/jonathan/candidate-intel/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(name string, assessScore int, overall float64) types.ProcessedCandidate {
	return types.ProcessedCandidate{
		FileName:   name + ".pdf",
		Profile:    &types.CandidateProfile{Personal: types.PersonalInfo{Name: types.StringPtr(name)}, Skills: []string{"Go"}},
		Score:      types.ScoreBreakdown{OverallScore: overall},
		Assessment: &types.RoleAssessment{Score: assessScore, Recommendation: types.RecommendHire},
	}
}

func threeCandidates() []types.ProcessedCandidate {
	return []types.ProcessedCandidate{
		candidate("Ann", 70, 50),
		candidate("Bob", 90, 40),
		candidate("Cid", 70, 60),
	}
}

func TestRank_UsesServiceOrdering(t *testing.T) {
	client := llmtest.NewScripted().On(OpRankCandidates, `{"rankings": [
		{"original_index": 2, "rank": 1, "ranking_reason": "Cid beats Ann and Bob", "recommendation_level": "Strong Hire"},
		{"original_index": 0, "rank": 3, "ranking_reason": "Ann trails", "recommendation_level": "Maybe"},
		{"original_index": 1, "rank": 2, "ranking_reason": "Bob trails Cid", "recommendation_level": "Hire"}
	]}`)

	ranked := NewRanker(client, nil).Rank(context.Background(), threeCandidates(), testReqs)

	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"Cid.pdf", "Bob.pdf", "Ann.pdf"}, fileNames(ranked))
	assert.Equal(t, []int{1, 2, 3}, ranks(ranked))
	assert.Equal(t, types.RecommendStrongHire, ranked[0].RecommendationLevel)
	assert.Equal(t, "Cid beats Ann and Bob", ranked[0].RankingReason)
	for _, r := range ranked {
		assert.False(t, r.Degraded)
	}

	prompt := client.Prompts(OpRankCandidates)[0]
	assert.Contains(t, prompt, "exactly 3 entries")
	assert.Contains(t, prompt, "from 0 to 2")
}

func TestRank_AcceptsBareArrayWithCamelCase(t *testing.T) {
	client := llmtest.NewScripted().On(OpRankCandidates, "Here you go:\n```json\n"+`[
		{"originalIndex": 1, "rank": 1, "rankingReason": "best", "recommendationLevel": "Hire"},
		{"originalIndex": 0, "rank": 2, "rankingReason": "second", "recommendationLevel": "Pass"}
	]`+"\n```")

	ranked := NewRanker(client, nil).Rank(context.Background(), threeCandidates()[:2], testReqs)
	assert.Equal(t, []string{"Bob.pdf", "Ann.pdf"}, fileNames(ranked))
	assert.False(t, ranked[0].Degraded)
}

func TestRank_FallbackOnInvalidOutput(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "service error", err: &llm.ServiceError{Kind: llm.KindRateLimit}},
		{name: "not JSON", response: "I prefer Bob"},
		{name: "missing entry", response: `[{"original_index": 0, "rank": 1}, {"original_index": 1, "rank": 2}]`},
		{name: "duplicate index", response: `[{"original_index": 0, "rank": 1}, {"original_index": 0, "rank": 2}, {"original_index": 1, "rank": 3}]`},
		{name: "tied ranks", response: `[{"original_index": 0, "rank": 1}, {"original_index": 1, "rank": 1}, {"original_index": 2, "rank": 2}]`},
		{name: "index out of range", response: `[{"original_index": 0, "rank": 1}, {"original_index": 1, "rank": 2}, {"original_index": 3, "rank": 3}]`},
		{name: "rank out of range", response: `[{"original_index": 0, "rank": 0}, {"original_index": 1, "rank": 2}, {"original_index": 2, "rank": 3}]`},
		{name: "string index", response: `[{"original_index": "0", "rank": 1}, {"original_index": 1, "rank": 2}, {"original_index": 2, "rank": 3}]`},
		{name: "object without rankings", response: `{"ranking": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llmtest.NewScripted()
			if tt.err != nil {
				client.Fail(OpRankCandidates, tt.err)
			} else {
				client.On(OpRankCandidates, tt.response)
			}

			ranked := NewRanker(client, nil).Rank(context.Background(), threeCandidates(), testReqs)

			assert.Equal(t, []string{"Bob.pdf", "Cid.pdf", "Ann.pdf"}, fileNames(ranked))
			assert.Equal(t, []int{1, 2, 3}, ranks(ranked))
			for _, r := range ranked {
				assert.True(t, r.Degraded)
				assert.Equal(t, FallbackReason, r.RankingReason)
			}
		})
	}
}

func TestRank_Empty(t *testing.T) {
	client := llmtest.NewScripted()
	ranked := NewRanker(client, nil).Rank(context.Background(), nil, testReqs)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
	assert.Equal(t, 0, client.Calls(OpRankCandidates))
}

func TestFallbackOrder_PermutationProperty(t *testing.T) {
	for n := 1; n <= 12; n++ {
		candidates := make([]types.ProcessedCandidate, n)
		for i := range candidates {
			candidates[i] = candidate(fmt.Sprintf("c%d", i), (i*37)%5*10, float64((i*13)%7))
		}
		ranked := FallbackOrder(candidates)

		require.Len(t, ranked, n)
		seen := map[string]bool{}
		for i, r := range ranked {
			assert.Equal(t, i+1, r.Rank)
			seen[r.FileName] = true
			if i > 0 {
				prev := ranked[i-1]
				assert.GreaterOrEqual(t, prev.Assessment.Score, r.Assessment.Score)
			}
		}
		assert.Len(t, seen, n)
	}
}

func TestFallbackOrder_TiesKeepInputOrder(t *testing.T) {
	candidates := []types.ProcessedCandidate{candidate("a", 50, 10), candidate("b", 50, 10), {FileName: "c.pdf"}}
	ranked := FallbackOrder(candidates)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, fileNames(ranked))
	assert.Equal(t, types.RecommendMaybe, ranked[2].RecommendationLevel, "no assessment maps to Maybe")
}

func fileNames(ranked []types.RankedCandidate) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.FileName
	}
	return out
}

func ranks(ranked []types.RankedCandidate) []int {
	out := make([]int, len(ranked))
	for i, r := range ranked {
		out[i] = r.Rank
	}
	return out
}
