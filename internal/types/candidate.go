package types

// DedupAction is the persistence decision taken for a processed candidate
type DedupAction string

// Dedup actions
const (
	DedupCreated           DedupAction = "created"
	DedupUpdated           DedupAction = "updated"
	DedupDuplicateDetected DedupAction = "duplicate_detected"
)

// ProcessedCandidate is everything the pipeline derived from one résumé
type ProcessedCandidate struct {
	FileName     string              `json:"file_name"`
	CandidateID  string              `json:"candidate_id,omitempty"`
	Profile      *CandidateProfile   `json:"profile"`
	Entities     []Entity            `json:"entities"`
	Evidence     EvidenceMap         `json:"evidence"`
	Score        ScoreBreakdown      `json:"score"`
	Verification VerificationReport  `json:"verification"`
	SkillMatch   *SkillMatchResult   `json:"skill_match"`
	Assessment   *RoleAssessment     `json:"assessment"`
	Questions    *InterviewQuestions `json:"interview_questions,omitempty"`
	DedupAction  DedupAction         `json:"dedup_action,omitempty"`
	Similarity   *int                `json:"similarity,omitempty"`
}

// RankedCandidate is a processed candidate placed in the batch ordering
type RankedCandidate struct {
	ProcessedCandidate
	Rank                int            `json:"rank"`
	RankingReason       string         `json:"ranking_reason"`
	RecommendationLevel Recommendation `json:"recommendation_level"`
	Degraded            bool           `json:"ranking_degraded,omitempty"`
}
