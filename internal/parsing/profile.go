package parsing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/prompts"
	"github.com/jonathan/candidate-intel/internal/schemas"
	"github.com/jonathan/candidate-intel/internal/types"
)

// ProfileCallOptions are used for profile extraction
var ProfileCallOptions = llm.CallOptions{
	Operation:   OpExtractProfile,
	Temperature: 0.1,
	MaxTokens:   2000,
	Timeout:     llm.DefaultTimeout,
}

// placeholders are values the service writes instead of null
var placeholders = map[string]bool{
	"":              true,
	"n/a":           true,
	"na":            true,
	"not found":     true,
	"not provided":  true,
	"not specified": true,
	"unknown":       true,
	"null":          true,
	"none":          true,
}

// IsPlaceholder reports whether v is empty or a stand-in for a missing value
func IsPlaceholder(v string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(v))]
}

// ExtractProfile extracts a structured candidate profile from résumé text
func ExtractProfile(ctx context.Context, resumeText string, client llm.Client) (*types.CandidateProfile, error) {
	template := prompts.MustGet("extraction.json", "extract-profile")
	prompt := prompts.Format(template, map[string]string{
		"ResumeText": resumeText,
	})

	responseText, err := client.GenerateJSON(ctx, prompt, ProfileCallOptions)
	if err != nil {
		return nil, fmt.Errorf("extracting profile: %w", err)
	}
	return ParseProfileResponse(responseText)
}

// ParseProfileResponse validates and decodes a profile response. Placeholder personal
// values become nil and loosely typed dates are read as strings.
func ParseProfileResponse(responseText string) (*types.CandidateProfile, error) {
	responseText = llm.CleanJSONBlock(responseText)
	if err := schemas.Validate(schemas.CandidateProfile, responseText); err != nil {
		return nil, invalid(OpExtractProfile, "response does not match schema", err)
	}

	var wire wireProfile
	if err := json.Unmarshal([]byte(responseText), &wire); err != nil {
		return nil, invalid(OpExtractProfile, "failed to parse JSON response", err)
	}
	return wire.toProfile(), nil
}

// flexString accepts a JSON string, number or null
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

type wirePersonal struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
	LinkedIn *string `json:"linkedin"`
}

type wireExperience struct {
	Company      flexString `json:"company"`
	Role         flexString `json:"role"`
	StartDate    flexString `json:"start_date"`
	EndDate      flexString `json:"end_date"`
	Achievements []string   `json:"achievements"`
	Technologies []string   `json:"technologies"`
}

type wireEducation struct {
	Institution flexString `json:"institution"`
	Degree      flexString `json:"degree"`
	Field       flexString `json:"field"`
	Year        flexString `json:"year"`
}

type wireCertification struct {
	Name   flexString `json:"name"`
	Issuer flexString `json:"issuer"`
	Year   flexString `json:"year"`
}

type wireProfile struct {
	Personal       wirePersonal        `json:"personal"`
	Summary        flexString          `json:"summary"`
	Experience     []wireExperience    `json:"experience"`
	Education      []wireEducation     `json:"education"`
	Skills         []string            `json:"skills"`
	Certifications []wireCertification `json:"certifications"`
}

func (w *wireProfile) toProfile() *types.CandidateProfile {
	profile := &types.CandidateProfile{
		Personal: types.PersonalInfo{
			Name:     cleanPersonal(w.Personal.Name),
			Email:    cleanPersonal(w.Personal.Email),
			Phone:    cleanPersonal(w.Personal.Phone),
			Location: cleanPersonal(w.Personal.Location),
			LinkedIn: cleanPersonal(w.Personal.LinkedIn),
		},
		Summary:        strings.TrimSpace(string(w.Summary)),
		Experience:     make([]types.Experience, 0, len(w.Experience)),
		Education:      make([]types.Education, 0, len(w.Education)),
		Skills:         dedupFold(w.Skills, strings.TrimSpace),
		Certifications: make([]types.Certification, 0, len(w.Certifications)),
	}

	for _, e := range w.Experience {
		profile.Experience = append(profile.Experience, types.Experience{
			Company:      clean(e.Company),
			Role:         clean(e.Role),
			StartDate:    clean(e.StartDate),
			EndDate:      clean(e.EndDate),
			Achievements: nonEmpty(e.Achievements),
			Technologies: nonEmpty(e.Technologies),
		})
	}
	for _, e := range w.Education {
		profile.Education = append(profile.Education, types.Education{
			Institution: clean(e.Institution),
			Degree:      clean(e.Degree),
			Field:       clean(e.Field),
			Year:        clean(e.Year),
		})
	}
	for _, c := range w.Certifications {
		name := clean(c.Name)
		if name == "" {
			continue
		}
		profile.Certifications = append(profile.Certifications, types.Certification{
			Name:   name,
			Issuer: clean(c.Issuer),
			Year:   clean(c.Year),
		})
	}
	return profile
}

func cleanPersonal(v *string) *string {
	if v == nil || IsPlaceholder(*v) {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}

func clean(v flexString) string {
	s := strings.TrimSpace(string(v))
	if IsPlaceholder(s) {
		return ""
	}
	return s
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
