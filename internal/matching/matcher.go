// Package matching partitions requirement skills into matched and missing for a candidate.
package matching

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

// OpMatchSkills is the operation name for skill matching calls
const OpMatchSkills = "skills.match"

// CallOptions are used for skill matching
var CallOptions = llm.CallOptions{
	Operation:   OpMatchSkills,
	Temperature: 0.1,
	MaxTokens:   2000,
	Timeout:     llm.DefaultTimeout,
}

// Matcher classifies requirement skills against a candidate profile
type Matcher struct {
	client llm.Client
	logger *zap.Logger
}

// NewMatcher creates a Matcher
func NewMatcher(client llm.Client, logger *zap.Logger) *Matcher {
	return &Matcher{client: client, logger: logging.Component(logger, "matching")}
}

type matchResponse struct {
	MatchedSkills    []string `json:"matched_skills"`
	MissingSkills    []string `json:"missing_skills"`
	AdditionalSkills []string `json:"additional_skills"`
}

// Match asks the service to classify every requirement skill and then enforces the
// partition: each requirement lands in exactly one of matched or missing.
func (m *Matcher) Match(ctx context.Context, profile *types.CandidateProfile, reqs *types.RequirementSet) (*types.SkillMatchResult, error) {
	universe := reqs.AllSkills()

	prompt, err := buildPrompt(profile, universe)
	if err != nil {
		return nil, err
	}

	responseText, err := m.client.GenerateJSON(ctx, prompt, CallOptions)
	if err != nil {
		return nil, fmt.Errorf("matching skills: %w", err)
	}

	resp, err := parseResponse(responseText)
	if err != nil {
		return nil, err
	}

	result := Reconcile(universe, resp.MatchedSkills, resp.AdditionalSkills)
	m.logger.Debug("skills matched",
		zap.Int("matched", len(result.MatchedSkills)),
		zap.Int("missing", len(result.MissingSkills)),
		zap.Int("additional", len(result.AdditionalSkills)))
	return result, nil
}

// Degraded is the result used when matching fails: every requirement is missing
func Degraded(reqs *types.RequirementSet) *types.SkillMatchResult {
	missing := reqs.AllSkills()
	if missing == nil {
		missing = []string{}
	}
	return &types.SkillMatchResult{
		MatchedSkills:    []string{},
		MissingSkills:    missing,
		AdditionalSkills: []string{},
		Degraded:         true,
	}
}

func buildPrompt(profile *types.CandidateProfile, universe []string) (string, error) {
	required, err := json.Marshal(universe)
	if err != nil {
		return "", fmt.Errorf("failed to marshal required skills: %w", err)
	}
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}

	template := prompts.MustGet("matching.json", "match-skills")
	return prompts.Format(template, map[string]string{
		"RequiredSkills": string(required),
		"Profile":        string(profileJSON),
	}), nil
}

func parseResponse(responseText string) (*matchResponse, error) {
	responseText = llm.CleanJSONBlock(responseText)
	if err := schemas.Validate(schemas.SkillMatch, responseText); err != nil {
		return nil, &parsing.ExtractionError{Stage: OpMatchSkills, Message: "response does not match schema", Cause: err}
	}
	var resp matchResponse
	if err := json.Unmarshal([]byte(responseText), &resp); err != nil {
		return nil, &parsing.ExtractionError{Stage: OpMatchSkills, Message: "failed to parse JSON response", Cause: err}
	}
	return &resp, nil
}
