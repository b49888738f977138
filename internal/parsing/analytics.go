package parsing

import (
	"strings"
	"time"

	"github.com/jonathan/candidate-intel/internal/types"
)

// educationLevels are ordered from highest to lowest
var educationLevels = []struct {
	label    string
	keywords []string
}{
	{"PhD", []string{"phd", "ph.d", "doctor"}},
	{"Master", []string{"master", "mba", "msc", "m.sc"}},
	{"Bachelor", []string{"bachelor", "bsc", "b.sc", "b.tech", "b.eng"}},
	{"Associate", []string{"associate"}},
	{"Diploma", []string{"diploma"}},
	{"Certificate", []string{"certificate"}},
}

// YearsOfExperience sums the year spans of all experience entries. Ongoing
// entries end at now; entries without a readable start contribute nothing.
func YearsOfExperience(profile *types.CandidateProfile, now time.Time) int {
	if profile == nil {
		return 0
	}
	total := 0
	for _, exp := range profile.Experience {
		start, ok := types.YearOf(exp.StartDate, now.Year())
		if !ok || types.IsPresent(exp.StartDate) {
			continue
		}
		end, ok := types.YearOf(exp.EndDate, now.Year())
		if !ok {
			continue
		}
		if end > start {
			total += end - start
		}
	}
	return total
}

// HighestEducation returns the highest recognized degree level, the first listed degree
// when none is recognized, or "" without education
func HighestEducation(profile *types.CandidateProfile) string {
	if profile == nil || len(profile.Education) == 0 {
		return ""
	}
	for _, level := range educationLevels {
		for _, edu := range profile.Education {
			degree := strings.ToLower(edu.Degree)
			for _, kw := range level.keywords {
				if strings.Contains(degree, kw) {
					return level.label
				}
			}
		}
	}
	return profile.Education[0].Degree
}

// CurrentPosition returns the ongoing experience entry, else the first entry, else nil
func CurrentPosition(profile *types.CandidateProfile) *types.Experience {
	if profile == nil || len(profile.Experience) == 0 {
		return nil
	}
	for i := range profile.Experience {
		if types.IsPresent(profile.Experience[i].EndDate) {
			return &profile.Experience[i]
		}
	}
	return &profile.Experience[0]
}
