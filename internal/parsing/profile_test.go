package parsing

import (
	"context"
	"testing"

	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/llm/llmtest"
	"github.com/jonathan/candidate-intel/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractProfile(t *testing.T) {
	var gotOpts llm.CallOptions
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, opts llm.CallOptions) (string, error) {
			gotOpts = opts
			assert.Contains(t, prompt, "Jane Doe")
			return `{
				"personal": {"name": "Jane Doe", "email": "jane@acme.com", "phone": "Not provided", "location": "N/A", "linkedin": null},
				"summary": "Backend engineer",
				"experience": [
					{"company": "Acme", "role": "Engineer", "start_date": 2019, "end_date": "Present",
					 "achievements": ["Built billing", ""], "technologies": ["Go"]}
				],
				"education": [{"institution": "MIT", "degree": "BSc", "field": "CS", "year": 2018}],
				"skills": ["Go", "Python", "go"],
				"certifications": [{"name": "CKA", "issuer": null, "year": "2021"}]
			}`, nil
		},
	}

	profile, err := ExtractProfile(context.Background(), "Jane Doe\njane@acme.com", client)
	require.NoError(t, err)

	assert.Equal(t, OpExtractProfile, gotOpts.Operation)
	assert.Equal(t, 2000, gotOpts.MaxTokens)

	assert.Equal(t, "Jane Doe", types.Deref(profile.Personal.Name))
	assert.Equal(t, "jane@acme.com", types.Deref(profile.Personal.Email))
	assert.Nil(t, profile.Personal.Phone, "placeholder becomes nil")
	assert.Nil(t, profile.Personal.Location, "placeholder becomes nil")
	assert.Nil(t, profile.Personal.LinkedIn)

	require.Len(t, profile.Experience, 1)
	assert.Equal(t, "2019", profile.Experience[0].StartDate, "numeric dates read as strings")
	assert.Equal(t, "Present", profile.Experience[0].EndDate)
	assert.Equal(t, []string{"Built billing"}, profile.Experience[0].Achievements)
	assert.Equal(t, "2018", profile.Education[0].Year)
	assert.Equal(t, []string{"Go", "Python"}, profile.Skills)
	assert.Equal(t, []types.Certification{{Name: "CKA", Year: "2021"}}, profile.Certifications)
	assert.False(t, profile.Fallback)
}

func TestParseProfileResponse_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "missing personal", response: `{"skills": []}`},
		{name: "missing skills", response: `{"personal": {}}`},
		{name: "personal not object", response: `{"personal": "Jane", "skills": []}`},
		{name: "garbage", response: `sorry`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfileResponse(tt.response)
			assert.ErrorIs(t, err, ErrExtractionInvalid)
		})
	}
}

func TestIsPlaceholder(t *testing.T) {
	for _, v := range []string{"", "  ", "N/A", "not found", "Not Provided", "unknown", "null", "None"} {
		assert.True(t, IsPlaceholder(v), v)
	}
	for _, v := range []string{"Jane", "Berlin", "nonexistent street"} {
		assert.False(t, IsPlaceholder(v), v)
	}
}
