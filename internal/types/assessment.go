package types

// Recommendation is the hiring recommendation attached to an assessment
type Recommendation string

// Recommendation levels, strongest first
const (
	RecommendStrongHire Recommendation = "Strong Hire"
	RecommendHire       Recommendation = "Hire"
	RecommendMaybe      Recommendation = "Maybe"
	RecommendPass       Recommendation = "Pass"
)

// ParseRecommendation maps free text to a recommendation level. Unknown values map to Maybe.
func ParseRecommendation(s string) Recommendation {
	switch FoldKey(s) {
	case "strong hire", "stronghire", "strong_hire":
		return RecommendStrongHire
	case "hire":
		return RecommendHire
	case "pass", "no hire", "reject":
		return RecommendPass
	default:
		return RecommendMaybe
	}
}

// SkillMatchResult partitions requirement skills into matched and missing,
// plus candidate skills that answer no requirement.
type SkillMatchResult struct {
	MatchedSkills    []string `json:"matched_skills"`
	MissingSkills    []string `json:"missing_skills"`
	AdditionalSkills []string `json:"additional_skills"`
	Degraded         bool     `json:"degraded,omitempty"`
}

// RoleAssessment is the qualitative fit assessment for one candidate
type RoleAssessment struct {
	Assessment          string         `json:"assessment"`
	Score               int            `json:"score"`
	Strengths           []string       `json:"strengths"`
	Gaps                []string       `json:"gaps"`
	MatchedRequirements []string       `json:"matched_requirements"`
	MissingRequirements []string       `json:"missing_requirements"`
	Recommendation      Recommendation `json:"recommendation"`
	Degraded            bool           `json:"degraded,omitempty"`
}

// ScoreBreakdown is the deterministic multi-factor score
type ScoreBreakdown struct {
	MustHaveScore float64 `json:"must_have_score"`
	SemanticScore float64 `json:"semantic_score"`
	RecencyScore  float64 `json:"recency_score"`
	ImpactScore   float64 `json:"impact_score"`
	OverallScore  float64 `json:"overall_score"`
}

// VerificationReport is a diagnostic sanity pass over an extracted profile
type VerificationReport struct {
	FieldValidityRate float64  `json:"field_validity_rate"`
	EvidenceCoverage  float64  `json:"evidence_coverage"`
	DisagreementRate  float64  `json:"disagreement_rate"`
	Issues            []string `json:"issues"`
}

// InterviewQuestions groups generated interview questions by purpose
type InterviewQuestions struct {
	Technical  []string `json:"technical"`
	Behavioral []string `json:"behavioral"`
	GapProbing []string `json:"gap_probing"`
	Scenario   []string `json:"scenario"`
	Degraded   bool     `json:"degraded,omitempty"`
}
