package ranking

import (
	"context"
	"testing"

	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/llm/llmtest"
	"github.com/jonathan/candidate-intel/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testReqs = &types.RequirementSet{Skills: []string{"Python", "Docker"}, MustHave: []string{"Python"}}

var testProfile = &types.CandidateProfile{
	Personal: types.PersonalInfo{Name: types.StringPtr("Jane Doe")},
	Skills:   []string{"Python"},
	Experience: []types.Experience{
		{Company: "Acme", Role: "Engineer", StartDate: "2020", EndDate: "Present"},
	},
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantScore int
		wantRec   types.Recommendation
	}{
		{
			name: "valid",
			response: `{"assessment": "Solid fit", "score": 82, "strengths": ["Python"], "gaps": ["Docker"],
				"matched_requirements": ["Python"], "missing_requirements": ["Docker"], "recommendation": "Hire"}`,
			wantScore: 82,
			wantRec:   types.RecommendHire,
		},
		{name: "clamps high", response: `{"assessment": "x", "score": 140, "recommendation": "Strong Hire"}`, wantScore: 100, wantRec: types.RecommendStrongHire},
		{name: "clamps low", response: `{"assessment": "x", "score": -5, "recommendation": "Pass"}`, wantScore: 0, wantRec: types.RecommendPass},
		{name: "rounds fractional", response: `{"assessment": "x", "score": 74.6, "recommendation": "Maybe"}`, wantScore: 75, wantRec: types.RecommendMaybe},
		{name: "unknown recommendation", response: `{"assessment": "x", "score": 50, "recommendation": "Absolutely"}`, wantScore: 50, wantRec: types.RecommendMaybe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llmtest.NewScripted().On(OpAssessRole, tt.response)
			got := NewAssessor(client, nil).Assess(context.Background(), testProfile, testReqs)

			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantRec, got.Recommendation)
			assert.False(t, got.Degraded)
			assert.NotNil(t, got.Strengths)
		})
	}
}

func TestAssess_DegradedOnFailure(t *testing.T) {
	tests := []struct {
		name   string
		client *llmtest.Scripted
	}{
		{name: "service error", client: llmtest.NewScripted().Fail(OpAssessRole, &llm.ServiceError{Kind: llm.KindServer})},
		{name: "malformed", client: llmtest.NewScripted().On(OpAssessRole, `{"score": "high"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			got := NewAssessor(tt.client, zap.New(core)).Assess(context.Background(), testProfile, testReqs)

			assert.Equal(t, DegradedAssessment(), got)
			assert.Equal(t, 0, got.Score)
			assert.Equal(t, types.RecommendPass, got.Recommendation)
			assert.Equal(t, DegradedAssessmentText, got.Assessment)
			require.Equal(t, 1, logs.Len(), "degradation is logged")
			assert.Equal(t, OpAssessRole, logs.All()[0].ContextMap()["operation"])
		})
	}
}

func TestAssess_PromptAndOptions(t *testing.T) {
	client := llmtest.NewScripted().On(OpAssessRole, `{"assessment": "x", "score": 60, "recommendation": "Maybe"}`)
	NewAssessor(client, nil).Assess(context.Background(), testProfile, testReqs)

	prompts := client.Prompts(OpAssessRole)
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Jane Doe")
	assert.Contains(t, prompts[0], `"must_have"`)
	assert.Contains(t, prompts[0], "90-100")
}
