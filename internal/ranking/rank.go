package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/logging"
	"github.com/jonathan/candidate-intel/internal/parsing"
	"github.com/jonathan/candidate-intel/internal/prompts"
	"github.com/jonathan/candidate-intel/internal/schemas"
	"github.com/jonathan/candidate-intel/internal/types"
)

// RankCallOptions are used for the comparative ranking pass
var RankCallOptions = llm.CallOptions{
	Operation:   OpRankCandidates,
	Temperature: 0.2,
	MaxTokens:   2000,
	Timeout:     llm.DefaultTimeout,
}

// FallbackReason is the ranking reason attached by the deterministic fallback
const FallbackReason = "Ranked based on overall assessment score"

const (
	summarySkills       = 15
	summaryAchievements = 3
)

// Ranker orders a processed batch comparatively
type Ranker struct {
	client llm.Client
	logger *zap.Logger
}

// NewRanker creates a Ranker
func NewRanker(client llm.Client, logger *zap.Logger) *Ranker {
	return &Ranker{client: client, logger: logging.Component(logger, "ranker")}
}

// rankEntry is one element of the service's ranking
type rankEntry struct {
	OriginalIndex       int    `json:"original_index"`
	Rank                int    `json:"rank"`
	RankingReason       string `json:"ranking_reason"`
	RecommendationLevel string `json:"recommendation_level"`
}

// Rank returns one ranked entry per candidate, ordered by rank 1..N. When the service
// fails or returns anything other than a permutation of the input, the batch is ordered
// deterministically by FallbackOrder and every entry is marked degraded.
func (r *Ranker) Rank(ctx context.Context, candidates []types.ProcessedCandidate, reqs *types.RequirementSet) []types.RankedCandidate {
	if len(candidates) == 0 {
		return []types.RankedCandidate{}
	}

	entries, err := r.rank(ctx, candidates, reqs)
	if err != nil {
		logging.Degraded(r.logger, OpRankCandidates, err, zap.Int("candidates", len(candidates)))
		return FallbackOrder(candidates)
	}

	out := make([]types.RankedCandidate, len(entries))
	for i, e := range entries {
		out[i] = types.RankedCandidate{
			ProcessedCandidate:  candidates[e.OriginalIndex],
			Rank:                e.Rank,
			RankingReason:       e.RankingReason,
			RecommendationLevel: types.ParseRecommendation(e.RecommendationLevel),
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

func (r *Ranker) rank(ctx context.Context, candidates []types.ProcessedCandidate, reqs *types.RequirementSet) ([]rankEntry, error) {
	prompt, err := buildRankPrompt(candidates, reqs)
	if err != nil {
		return nil, err
	}

	responseText, err := r.client.GenerateJSON(ctx, prompt, RankCallOptions)
	if err != nil {
		return nil, fmt.Errorf("ranking candidates: %w", err)
	}

	entries, err := parseRankings(responseText)
	if err != nil {
		return nil, err
	}
	if err := checkPermutation(entries, len(candidates)); err != nil {
		return nil, err
	}
	return entries, nil
}

// parseRankings accepts either a bare array or {"rankings": [...]}, with snake_case or camelCase keys
func parseRankings(responseText string) ([]rankEntry, error) {
	responseText = llm.CleanJSONBlock(responseText)
	if !gjson.Valid(responseText) {
		return nil, invalidRanking("response is not valid JSON", nil)
	}

	root := gjson.Parse(responseText)
	list := root
	if root.IsObject() {
		list = root.Get("rankings")
	}
	if !list.IsArray() {
		return nil, invalidRanking("response holds no rankings array", nil)
	}

	var entries []rankEntry
	var parseErr error
	list.ForEach(func(_, item gjson.Result) bool {
		index := firstOf(item, "original_index", "originalIndex")
		rank := item.Get("rank")
		if index.Type != gjson.Number || rank.Type != gjson.Number {
			parseErr = invalidRanking("ranking entry lacks numeric original_index or rank", nil)
			return false
		}
		entries = append(entries, rankEntry{
			OriginalIndex:       int(index.Int()),
			Rank:                int(rank.Int()),
			RankingReason:       firstOf(item, "ranking_reason", "rankingReason").String(),
			RecommendationLevel: firstOf(item, "recommendation_level", "recommendationLevel").String(),
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	canonical, err := json.Marshal(map[string][]rankEntry{"rankings": entries})
	if err != nil {
		return nil, invalidRanking("failed to re-encode rankings", err)
	}
	if err := schemas.Validate(schemas.Ranking, string(canonical)); err != nil {
		return nil, invalidRanking("rankings do not match schema", err)
	}
	return entries, nil
}

// checkPermutation requires exactly n entries whose indices cover 0..n-1 and ranks cover 1..n
func checkPermutation(entries []rankEntry, n int) error {
	if len(entries) != n {
		return invalidRanking(fmt.Sprintf("expected %d rankings, got %d", n, len(entries)), nil)
	}
	indices := make([]bool, n)
	ranks := make([]bool, n)
	for _, e := range entries {
		if e.OriginalIndex < 0 || e.OriginalIndex >= n || indices[e.OriginalIndex] {
			return invalidRanking(fmt.Sprintf("invalid or repeated original_index %d", e.OriginalIndex), nil)
		}
		if e.Rank < 1 || e.Rank > n || ranks[e.Rank-1] {
			return invalidRanking(fmt.Sprintf("invalid or repeated rank %d", e.Rank), nil)
		}
		indices[e.OriginalIndex] = true
		ranks[e.Rank-1] = true
	}
	return nil
}

// FallbackOrder ranks by assessment score, then overall score, both descending, then input order
func FallbackOrder(candidates []types.ProcessedCandidate) []types.RankedCandidate {
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := candidates[order[a]], candidates[order[b]]
		sa, sb := assessmentScore(ca), assessmentScore(cb)
		if sa != sb {
			return sa > sb
		}
		return ca.Score.OverallScore > cb.Score.OverallScore
	})

	out := make([]types.RankedCandidate, len(order))
	for rank, idx := range order {
		c := candidates[idx]
		level := types.RecommendMaybe
		if c.Assessment != nil && c.Assessment.Recommendation != "" {
			level = c.Assessment.Recommendation
		}
		out[rank] = types.RankedCandidate{
			ProcessedCandidate:  c,
			Rank:                rank + 1,
			RankingReason:       FallbackReason,
			RecommendationLevel: level,
			Degraded:            true,
		}
	}
	return out
}

func assessmentScore(c types.ProcessedCandidate) int {
	if c.Assessment == nil {
		return 0
	}
	return c.Assessment.Score
}

func firstOf(item gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := item.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func invalidRanking(message string, cause error) error {
	return &parsing.ExtractionError{Stage: OpRankCandidates, Message: message, Cause: cause}
}

type experienceSummary struct {
	Role         string   `json:"role"`
	Company      string   `json:"company"`
	Duration     string   `json:"duration"`
	Achievements []string `json:"achievements"`
}

type educationSummary struct {
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Institution string `json:"institution"`
}

type candidateSummary struct {
	Index          int                   `json:"index"`
	Name           string                `json:"name"`
	KeySkills      []string              `json:"key_skills"`
	Experience     []experienceSummary   `json:"experience"`
	Education      []educationSummary    `json:"education"`
	RoleAssessment *types.RoleAssessment `json:"role_assessment,omitempty"`
	OverallScore   float64               `json:"overall_score"`
}

func buildRankPrompt(candidates []types.ProcessedCandidate, reqs *types.RequirementSet) (string, error) {
	summaries := make([]candidateSummary, len(candidates))
	for i, c := range candidates {
		summaries[i] = summarize(i, c)
	}

	reqJSON, err := json.MarshalIndent(reqs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal requirements: %w", err)
	}
	candJSON, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal candidate summaries: %w", err)
	}

	template := prompts.MustGet("ranking.json", "rank-candidates")
	return prompts.Format(template, map[string]string{
		"Count":        fmt.Sprint(len(candidates)),
		"MaxIndex":     fmt.Sprint(len(candidates) - 1),
		"Requirements": string(reqJSON),
		"Candidates":   string(candJSON),
	}), nil
}

func summarize(index int, c types.ProcessedCandidate) candidateSummary {
	s := candidateSummary{
		Index:          index,
		Name:           fmt.Sprintf("Candidate %d", index+1),
		KeySkills:      []string{},
		Experience:     []experienceSummary{},
		Education:      []educationSummary{},
		RoleAssessment: c.Assessment,
		OverallScore:   c.Score.OverallScore,
	}
	p := c.Profile
	if p == nil {
		return s
	}
	if p.Personal.Name != nil {
		s.Name = *p.Personal.Name
	}
	s.KeySkills = head(p.Skills, summarySkills)
	for _, e := range p.Experience {
		s.Experience = append(s.Experience, experienceSummary{
			Role:         e.Role,
			Company:      e.Company,
			Duration:     fmt.Sprintf("%s - %s", e.StartDate, e.EndDate),
			Achievements: head(e.Achievements, summaryAchievements),
		})
	}
	for _, e := range p.Education {
		s.Education = append(s.Education, educationSummary{Degree: e.Degree, Field: e.Field, Institution: e.Institution})
	}
	return s
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return orEmpty(items)
	}
	return items[:n]
}
