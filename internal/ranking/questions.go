package ranking

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/logging"
	"github.com/jonathan/candidate-intel/internal/parsing"
	"github.com/jonathan/candidate-intel/internal/prompts"
	"github.com/jonathan/candidate-intel/internal/schemas"
	"github.com/jonathan/candidate-intel/internal/types"
)

// QuestionsCallOptions are used for interview question generation
var QuestionsCallOptions = llm.CallOptions{
	Operation:   OpInterviewQuestions,
	Temperature: 0.3,
	MaxTokens:   1500,
	Timeout:     llm.DefaultTimeout,
}

const maxFallbackQuestions = 3

// QuestionGenerator writes interview questions for an assessed candidate
type QuestionGenerator struct {
	client llm.Client
	logger *zap.Logger
}

// NewQuestionGenerator creates a QuestionGenerator
func NewQuestionGenerator(client llm.Client, logger *zap.Logger) *QuestionGenerator {
	return &QuestionGenerator{client: client, logger: logging.Component(logger, "questions")}
}

// Generate never fails: on any error it logs and returns FallbackQuestions
func (g *QuestionGenerator) Generate(ctx context.Context, profile *types.CandidateProfile, reqs *types.RequirementSet, assessment *types.RoleAssessment) *types.InterviewQuestions {
	questions, err := g.generate(ctx, profile, reqs, assessment)
	if err != nil {
		logging.Degraded(g.logger, OpInterviewQuestions, err)
		return FallbackQuestions(profile, reqs, assessment)
	}
	return questions
}

func (g *QuestionGenerator) generate(ctx context.Context, profile *types.CandidateProfile, reqs *types.RequirementSet, assessment *types.RoleAssessment) (*types.InterviewQuestions, error) {
	data := map[string]any{"Requirements": reqs, "Assessment": assessment, "Profile": profile}
	values := make(map[string]string, len(data))
	for key, v := range data {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		values[key] = string(b)
	}

	template := prompts.MustGet("assessment.json", "generate-questions")
	responseText, err := g.client.GenerateJSON(ctx, prompts.Format(template, values), QuestionsCallOptions)
	if err != nil {
		return nil, fmt.Errorf("generating interview questions: %w", err)
	}

	responseText = llm.CleanJSONBlock(responseText)
	if err := schemas.Validate(schemas.InterviewQuestions, responseText); err != nil {
		return nil, &parsing.ExtractionError{Stage: OpInterviewQuestions, Message: "response does not match schema", Cause: err}
	}
	var q types.InterviewQuestions
	if err := json.Unmarshal([]byte(responseText), &q); err != nil {
		return nil, &parsing.ExtractionError{Stage: OpInterviewQuestions, Message: "failed to parse JSON response", Cause: err}
	}
	if len(q.Technical)+len(q.Behavioral)+len(q.GapProbing)+len(q.Scenario) == 0 {
		return nil, &parsing.ExtractionError{Stage: OpInterviewQuestions, Message: "no questions returned"}
	}

	q.Technical = orEmpty(q.Technical)
	q.Behavioral = orEmpty(q.Behavioral)
	q.GapProbing = orEmpty(q.GapProbing)
	q.Scenario = orEmpty(q.Scenario)
	q.Degraded = false
	return &q, nil
}

// FallbackQuestions builds a deterministic question set from the matched and missing
// requirements and the candidate's current position
func FallbackQuestions(profile *types.CandidateProfile, reqs *types.RequirementSet, assessment *types.RoleAssessment) *types.InterviewQuestions {
	q := &types.InterviewQuestions{
		Technical:  []string{},
		Behavioral: []string{},
		GapProbing: []string{},
		Scenario:   []string{},
		Degraded:   true,
	}

	matched, missing := splitRequirements(profile, reqs, assessment)
	for _, skill := range head(matched, maxFallbackQuestions) {
		q.Technical = append(q.Technical, fmt.Sprintf("Walk me through a project where you used %s. What trade-offs did you make?", skill))
	}
	for _, skill := range head(missing, maxFallbackQuestions) {
		q.GapProbing = append(q.GapProbing, fmt.Sprintf("This role requires %s. What related experience do you have, and how would you get up to speed?", skill))
	}

	if pos := parsing.CurrentPosition(profile); pos != nil && pos.Role != "" {
		where := pos.Role
		if pos.Company != "" {
			where = fmt.Sprintf("%s at %s", pos.Role, pos.Company)
		}
		q.Behavioral = append(q.Behavioral, fmt.Sprintf("Tell me about the hardest problem you faced as %s and how you resolved it.", where))
	}
	q.Behavioral = append(q.Behavioral, "Describe a time you disagreed with a teammate on a technical decision. What happened?")

	if len(missing) > 0 {
		q.Scenario = append(q.Scenario, fmt.Sprintf("In your first month the team asks you to deliver a feature that depends on %s. How do you plan the work?", missing[0]))
	} else {
		q.Scenario = append(q.Scenario, "In your first month a production incident hits a service you have never seen. How do you respond?")
	}
	return q
}

// splitRequirements prefers the assessment's lists and otherwise compares requirements to profile skills
func splitRequirements(profile *types.CandidateProfile, reqs *types.RequirementSet, assessment *types.RoleAssessment) (matched, missing []string) {
	if assessment != nil && !assessment.Degraded && len(assessment.MatchedRequirements)+len(assessment.MissingRequirements) > 0 {
		return assessment.MatchedRequirements, assessment.MissingRequirements
	}

	have := make(map[string]bool)
	if profile != nil {
		for _, s := range profile.Skills {
			have[types.FoldKey(s)] = true
		}
	}
	for _, req := range reqs.AllSkills() {
		if have[types.FoldKey(req)] {
			matched = append(matched, req)
		} else {
			missing = append(missing, req)
		}
	}
	return matched, missing
}
