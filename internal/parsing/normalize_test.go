package parsing

import (
	"testing"

	"github.com/jonathan/candidate-intel/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeSkillName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"framework suffix", "React frameworks", "React"},
		{"practice suffix", "Agile practices", "Agile"},
		{"methodology suffix", "Scrum methodology", "Scrum"},
		{"skills suffix", "Communication skills", "Communication"},
		{"development suffix", "Backend development", "Backend"},
		{"case-insensitive", "Testing TECHNIQUES", "Testing"},
		{"stacked suffixes", "Testing frameworks skills", "Testing"},
		{"single qualifier word kept", "Development", "Development"},
		{"trims whitespace", "  Go  ", "Go"},
		{"no suffix", "Kubernetes", "Kubernetes"},
		{"qualifier inside kept", "Skills Matrix Design", "Skills Matrix Design"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSkillName(tt.input))
		})
	}
}

func TestNormalizeRequirements(t *testing.T) {
	input := types.RequirementSet{
		Skills:     []string{"Python", "python", "React frameworks", "React", "", "  "},
		MustHave:   []string{"Agile practices", "agile"},
		Experience: []string{"5+ years backend development", "5+ YEARS backend development"},
		Education:  nil,
	}

	got := NormalizeRequirements(input)

	assert.Equal(t, []string{"Python", "React"}, got.Skills)
	assert.Equal(t, []string{"Agile"}, got.MustHave)
	assert.Equal(t, []string{"5+ years backend development"}, got.Experience, "experience keeps qualifier words")
	assert.NotNil(t, got.Education)
	assert.Empty(t, got.Education)
}

func TestNormalizeRequirements_Idempotent(t *testing.T) {
	inputs := []types.RequirementSet{
		{Skills: []string{"Testing frameworks skills", "Go", "GO"}, MustHave: []string{"Scrum methodologies"}},
		{Skills: []string{"CI/CD practices", "Machine Learning techniques"}, Education: []string{"BSc", "bsc"}},
		{},
	}

	for _, in := range inputs {
		once := NormalizeRequirements(in)
		twice := NormalizeRequirements(once)
		assert.Equal(t, once, twice)
	}
}
