package scoring

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/candidate-intel/internal/types"
)

// Verify checks the profile against the current year
func Verify(profile *types.CandidateProfile, ents []types.Entity) types.VerificationReport {
	return VerifyAt(profile, ents, time.Now())
}

// VerifyAt flags future and inverted experience dates and reports field validity,
// evidence coverage and disagreement as percentages of the profile's leaf field count
func VerifyAt(profile *types.CandidateProfile, ents []types.Entity, now time.Time) types.VerificationReport {
	report := types.VerificationReport{Issues: []string{}}
	if profile == nil {
		return report
	}

	year := now.Year()
	for _, exp := range profile.Experience {
		start, hasStart := types.YearOf(exp.StartDate, year)
		end, hasEnd := types.YearOf(exp.EndDate, year)
		ongoing := types.IsPresent(exp.EndDate)

		if (hasStart && start > year) || (hasEnd && !ongoing && end > year+1) {
			report.Issues = append(report.Issues, fmt.Sprintf("Future date detected: %s", exp.Company))
		}
		if hasStart && hasEnd && !ongoing && start > end {
			report.Issues = append(report.Issues, fmt.Sprintf("Invalid date range: %s", exp.Company))
		}
	}

	total := CountFields(profile)
	if total == 0 {
		return report
	}
	issues := float64(len(report.Issues))
	report.FieldValidityRate = round2((float64(total) - issues) / float64(total) * 100)
	report.EvidenceCoverage = round2(float64(len(ents)) / float64(total) * 100)
	report.DisagreementRate = round2(issues / float64(total) * 100)
	return report
}

// CountFields counts the leaf values of the profile's JSON form. Arrays count their
// length and nulls count as one field.
func CountFields(profile *types.CandidateProfile) int {
	data, err := json.Marshal(profile)
	if err != nil {
		return 0
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return 0
	}
	return countObject(tree)
}

func countObject(obj map[string]any) int {
	n := 0
	for _, v := range obj {
		switch val := v.(type) {
		case []any:
			n += len(val)
		case map[string]any:
			n += countObject(val)
		default:
			n++
		}
	}
	return n
}
