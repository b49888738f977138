package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jonathan/candidate-intel/internal/types"
)

// BatchStatus is the lifecycle state of a batch record
type BatchStatus string

// Batch statuses
const (
	BatchPending               BatchStatus = "pending"
	BatchProcessing            BatchStatus = "processing"
	BatchCompleted             BatchStatus = "completed"
	BatchCompletedWithWarnings BatchStatus = "completed_with_warnings"
	BatchFailed                BatchStatus = "failed"
)

// Batch represents a batch record
type Batch struct {
	ID               uuid.UUID             `json:"id"`
	Status           BatchStatus           `json:"status"`
	TotalResumes     int                   `json:"total_resumes"`
	ProcessedResumes int                   `json:"processed_resumes"`
	Requirements     *types.RequirementSet `json:"jd_requirements,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// Insights are derived facts stored alongside the profile in profile_json
type Insights struct {
	YearsOfExperience   int                   `json:"years_of_experience"`
	HighestEducation    string                `json:"highest_education,omitempty"`
	CurrentRole         string                `json:"current_role,omitempty"`
	Score               *types.ScoreBreakdown `json:"score,omitempty"`
	Assessment          *types.RoleAssessment `json:"assessment,omitempty"`
	RankingReason       string                `json:"ranking_reason,omitempty"`
	RecommendationLevel types.Recommendation  `json:"recommendation_level,omitempty"`
}

// Candidate represents a stored candidate. Email is stored lowercased.
type Candidate struct {
	ID               uuid.UUID              `json:"id"`
	BatchID          uuid.UUID              `json:"batch_id"`
	Name             *string                `json:"name"`
	Email            *string                `json:"email"`
	Phone            *string                `json:"phone"`
	Location         *string                `json:"location"`
	Profile          types.CandidateProfile `json:"profile"`
	Insights         *Insights              `json:"insights,omitempty"`
	OverallScore     float64                `json:"overall_score"`
	Rank             *int                   `json:"rank,omitempty"`
	MatchedSkills    StringArray            `json:"matched_skills"`
	MissingSkills    StringArray            `json:"missing_skills"`
	AdditionalSkills StringArray            `json:"additional_skills"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Clone returns a deep copy of c
func (c *Candidate) Clone() *Candidate {
	return clone(c)
}

// SetSkillMatch copies the match arrays onto the candidate's skill columns
func (c *Candidate) SetSkillMatch(match *types.SkillMatchResult) {
	c.MatchedSkills, c.MissingSkills, c.AdditionalSkills = StringArray{}, StringArray{}, StringArray{}
	if match == nil {
		return
	}
	c.MatchedSkills = append(c.MatchedSkills, match.MatchedSkills...)
	c.MissingSkills = append(c.MissingSkills, match.MissingSkills...)
	c.AdditionalSkills = append(c.AdditionalSkills, match.AdditionalSkills...)
}

// BatchCommit is everything a finished batch writes. CommitBatch applies it in one
// transaction, replacing the candidates an earlier run of the batch left behind.
type BatchCommit struct {
	Status    BatchStatus
	Processed int
	// Creates are inserted with the IDs they already carry
	Creates []*Candidate
	// Updates overwrite existing records of other batches and move them to this one
	Updates []*Candidate
}

// profileBlob is the stored shape of profile_json: the profile fields plus an insights object
type profileBlob struct {
	types.CandidateProfile
	Insights *Insights `json:"insights,omitempty"`
}

func marshalProfile(profile types.CandidateProfile, insights *Insights) (string, error) {
	data, err := json.Marshal(profileBlob{CandidateProfile: profile, Insights: insights})
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}
	return string(data), nil
}

func unmarshalProfile(data []byte) (types.CandidateProfile, *Insights, error) {
	var blob profileBlob
	if len(data) == 0 {
		return blob.CandidateProfile, nil, nil
	}
	if err := json.Unmarshal(data, &blob); err != nil {
		return types.CandidateProfile{}, nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return blob.CandidateProfile, blob.Insights, nil
}

// StringArray is a Postgres text[] column
type StringArray []string

// Value encodes the array as a Postgres array literal
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	buf, err := pgtype.NewMap().Encode(pgtype.TextArrayOID, pgtype.TextFormatCode, []string(a), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encode text array: %w", err)
	}
	return string(buf), nil
}

// Scan decodes a Postgres array literal
func (a *StringArray) Scan(value interface{}) error {
	var src []byte
	switch v := value.(type) {
	case nil:
		*a = StringArray{}
		return nil
	case string:
		src = []byte(v)
	case []byte:
		src = v
	default:
		return fmt.Errorf("failed to scan StringArray: unsupported type %T", value)
	}

	var out []string
	if err := pgtype.NewMap().Scan(pgtype.TextArrayOID, pgtype.TextFormatCode, src, &out); err != nil {
		return fmt.Errorf("failed to scan StringArray: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*a = out
	return nil
}
