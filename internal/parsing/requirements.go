// Package parsing turns job descriptions and résumé text into structured requirement
// sets and candidate profiles using the LLM, with a local fallback for profiles.
package parsing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/prompts"
	"github.com/jonathan/candidate-intel/internal/schemas"
	"github.com/jonathan/candidate-intel/internal/types"
)

// Operation names
const (
	OpExtractRequirements = "requirements.extract"
	OpExtractProfile      = "profile.extract"
)

// RequirementsCallOptions are used for requirement extraction. Each batch re-extracts, so results are not cached.
var RequirementsCallOptions = llm.CallOptions{
	Operation:   OpExtractRequirements,
	Temperature: 0.1,
	MaxTokens:   1500,
	Timeout:     llm.DefaultTimeout,
	NoCache:     true,
}

// minWordsForRequirements is the description length above which an empty extraction is rejected
const minWordsForRequirements = 50

// artifactTerms are document-processing phrases that show the service described
// the extraction task instead of the job
var artifactTerms = []string{
	"pdf parsing",
	"text extraction",
	"json parsing",
	"document parsing",
	"resume parsing",
}

// ExtractRequirements extracts the normalized requirement set from a job description
func ExtractRequirements(ctx context.Context, jobText string, client llm.Client) (*types.RequirementSet, error) {
	prompt := buildRequirementsPrompt(jobText)

	responseText, err := client.GenerateJSON(ctx, prompt, RequirementsCallOptions)
	if err != nil {
		return nil, fmt.Errorf("extracting requirements: %w", err)
	}

	reqs, err := parseRequirementsResponse(responseText)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeRequirements(*reqs)
	if err := checkRequirements(&normalized, jobText); err != nil {
		return nil, err
	}
	return &normalized, nil
}

func buildRequirementsPrompt(jobText string) string {
	template := prompts.MustGet("extraction.json", "extract-requirements")
	return prompts.Format(template, map[string]string{
		"JobDescription": jobText,
	})
}

// parseRequirementsResponse validates the response shape before decoding it
func parseRequirementsResponse(responseText string) (*types.RequirementSet, error) {
	responseText = llm.CleanJSONBlock(responseText)
	if err := schemas.Validate(schemas.RequirementSet, responseText); err != nil {
		return nil, invalid(OpExtractRequirements, "response does not match schema", err)
	}

	var reqs types.RequirementSet
	if err := json.Unmarshal([]byte(responseText), &reqs); err != nil {
		return nil, invalid(OpExtractRequirements, "failed to parse JSON response", err)
	}
	return &reqs, nil
}

// checkRequirements rejects extractions that are empty for a substantial description
// or that name document-processing artifacts absent from the description
func checkRequirements(reqs *types.RequirementSet, jobText string) error {
	if len(reqs.Skills) == 0 && len(reqs.MustHave) == 0 && len(strings.Fields(jobText)) >= minWordsForRequirements {
		return invalid(OpExtractRequirements, "no skills extracted from a substantial job description", nil)
	}

	lowerJob := strings.ToLower(jobText)
	for _, skill := range reqs.AllSkills() {
		lowerSkill := strings.ToLower(skill)
		for _, term := range artifactTerms {
			if strings.Contains(lowerSkill, term) && !strings.Contains(lowerJob, term) {
				return invalid(OpExtractRequirements, fmt.Sprintf("skill %q is unrelated to the job description", skill), nil)
			}
		}
	}
	return nil
}
