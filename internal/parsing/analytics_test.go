package parsing

import (
	"testing"
	"time"

	"github.com/jonathan/candidate-intel/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var analyticsNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func TestYearsOfExperience(t *testing.T) {
	profile := &types.CandidateProfile{Experience: []types.Experience{
		{StartDate: "Jan 2020", EndDate: "Present"},
		{StartDate: "2015", EndDate: "2019"},
		{StartDate: "2014", EndDate: "2012"},
		{StartDate: "", EndDate: "2010"},
	}}
	assert.Equal(t, 10, YearsOfExperience(profile, analyticsNow))
	assert.Equal(t, 0, YearsOfExperience(nil, analyticsNow))
}

func TestHighestEducation(t *testing.T) {
	tests := []struct {
		name      string
		education []types.Education
		want      string
	}{
		{name: "none", want: ""},
		{name: "phd wins", education: []types.Education{{Degree: "BSc Physics"}, {Degree: "Ph.D. Physics"}}, want: "PhD"},
		{name: "master over bachelor", education: []types.Education{{Degree: "Bachelor of Arts"}, {Degree: "MBA"}}, want: "Master"},
		{name: "diploma", education: []types.Education{{Degree: "Diploma in Design"}}, want: "Diploma"},
		{name: "unrecognized", education: []types.Education{{Degree: "Abitur"}}, want: "Abitur"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HighestEducation(&types.CandidateProfile{Education: tt.education}))
		})
	}
}

func TestCurrentPosition(t *testing.T) {
	assert.Nil(t, CurrentPosition(&types.CandidateProfile{}))

	profile := &types.CandidateProfile{Experience: []types.Experience{
		{Company: "Old", EndDate: "2019"},
		{Company: "Now", EndDate: "Current"},
	}}
	pos := CurrentPosition(profile)
	require.NotNil(t, pos)
	assert.Equal(t, "Now", pos.Company)

	profile.Experience[1].EndDate = "2021"
	assert.Equal(t, "Old", CurrentPosition(profile).Company)
}
