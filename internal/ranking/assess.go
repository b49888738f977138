// Package ranking assesses candidates against a requirement set, orders a batch
// comparatively and prepares interview questions.
package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/logging"
	"github.com/jonathan/candidate-intel/internal/parsing"
	"github.com/jonathan/candidate-intel/internal/prompts"
	"github.com/jonathan/candidate-intel/internal/schemas"
	"github.com/jonathan/candidate-intel/internal/types"
)

// Operation names
const (
	OpAssessRole         = "role.assess"
	OpRankCandidates     = "candidates.rank"
	OpInterviewQuestions = "interview.questions"
)

// AssessCallOptions are used for role assessment
var AssessCallOptions = llm.CallOptions{
	Operation:   OpAssessRole,
	Temperature: 0.2,
	MaxTokens:   2000,
	Timeout:     llm.DefaultTimeout,
}

// DegradedAssessmentText is the assessment text of a degraded result
const DegradedAssessmentText = "Unable to assess candidate due to technical error"

// Assessor produces a qualitative fit assessment per candidate
type Assessor struct {
	client llm.Client
	logger *zap.Logger
}

// NewAssessor creates an Assessor
func NewAssessor(client llm.Client, logger *zap.Logger) *Assessor {
	return &Assessor{client: client, logger: logging.Component(logger, "assessor")}
}

type assessResponse struct {
	Assessment          string   `json:"assessment"`
	Score               float64  `json:"score"`
	Strengths           []string `json:"strengths"`
	Gaps                []string `json:"gaps"`
	MatchedRequirements []string `json:"matched_requirements"`
	MissingRequirements []string `json:"missing_requirements"`
	Recommendation      string   `json:"recommendation"`
}

// Assess never fails: on any error it logs and returns DegradedAssessment
func (a *Assessor) Assess(ctx context.Context, profile *types.CandidateProfile, reqs *types.RequirementSet) *types.RoleAssessment {
	result, err := a.assess(ctx, profile, reqs)
	if err != nil {
		logging.Degraded(a.logger, OpAssessRole, err)
		return DegradedAssessment()
	}
	return result
}

func (a *Assessor) assess(ctx context.Context, profile *types.CandidateProfile, reqs *types.RequirementSet) (*types.RoleAssessment, error) {
	reqJSON, err := json.MarshalIndent(reqs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal requirements: %w", err)
	}
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}

	template := prompts.MustGet("assessment.json", "assess-role")
	prompt := prompts.Format(template, map[string]string{
		"Requirements": string(reqJSON),
		"Profile":      string(profileJSON),
	})

	responseText, err := a.client.GenerateJSON(ctx, prompt, AssessCallOptions)
	if err != nil {
		return nil, fmt.Errorf("assessing candidate: %w", err)
	}

	responseText = llm.CleanJSONBlock(responseText)
	if err := schemas.Validate(schemas.RoleAssessment, responseText); err != nil {
		return nil, &parsing.ExtractionError{Stage: OpAssessRole, Message: "response does not match schema", Cause: err}
	}
	var resp assessResponse
	if err := json.Unmarshal([]byte(responseText), &resp); err != nil {
		return nil, &parsing.ExtractionError{Stage: OpAssessRole, Message: "failed to parse JSON response", Cause: err}
	}

	return &types.RoleAssessment{
		Assessment:          resp.Assessment,
		Score:               clampScore(resp.Score),
		Strengths:           orEmpty(resp.Strengths),
		Gaps:                orEmpty(resp.Gaps),
		MatchedRequirements: orEmpty(resp.MatchedRequirements),
		MissingRequirements: orEmpty(resp.MissingRequirements),
		Recommendation:      types.ParseRecommendation(resp.Recommendation),
	}, nil
}

// DegradedAssessment is returned when the assessment call fails
func DegradedAssessment() *types.RoleAssessment {
	return &types.RoleAssessment{
		Assessment:          DegradedAssessmentText,
		Score:               0,
		Strengths:           []string{},
		Gaps:                []string{},
		MatchedRequirements: []string{},
		MissingRequirements: []string{},
		Recommendation:      types.RecommendPass,
		Degraded:            true,
	}
}

func clampScore(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, score))))
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
