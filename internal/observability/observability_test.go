package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/types"
)

var _ llm.Recorder = (*Metrics)(nil)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveCall("profile.extract", "success", 2*time.Second)
	m.ObserveCall("profile.extract", "success", time.Second)
	m.ObserveCall("skills.match", "rate_limit", time.Second)
	m.ObserveRetry("skills.match")
	m.ObserveDocument("completed")
	m.ObserveDegraded("assessor")
	m.ObserveBatch(time.Minute)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.llmCalls.WithLabelValues("profile.extract", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmCalls.WithLabelValues("skills.match", "rate_limit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmRetries.WithLabelValues("skills.match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.degraded.WithLabelValues("assessor")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "candidate_intel_llm_call_duration_seconds")
	assert.Contains(t, names, "candidate_intel_batch_duration_seconds")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCall("x", "success", time.Second)
		m.ObserveRetry("x")
		m.ObserveDocument("failed")
		m.ObserveDegraded("ranker")
		m.ObserveBatch(time.Second)
	})
}

func TestTracer_DefaultsToNoop(t *testing.T) {
	tracer := Tracer(nil)
	ctx, span := StartSpan(context.Background(), tracer, "document", "file", "a.pdf", "dangling")
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
	assert.NotPanics(t, func() { EndSpan(span, errors.New("boom")) })
}

func TestPrintBatch(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBatchSummary("b-1", "completed_with_warnings", 2, 3, true)
	p.PrintRequirements(&types.RequirementSet{MustHave: []string{"Python"}, Skills: []string{"Python", "Docker"}})
	p.PrintFailures([]Failure{{File: "broken.pdf", Error: "unreadable document"}})

	out := buf.String()
	assert.Contains(t, out, "BATCH SUMMARY")
	assert.Contains(t, out, "Processed: 2 of 3")
	assert.Contains(t, out, "fallback order")
	assert.Contains(t, out, "Must have:")
	assert.Contains(t, out, "• Docker")
	assert.Contains(t, out, "broken.pdf")
}

func TestPrintCandidate(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	similarity := 91

	c := types.RankedCandidate{
		ProcessedCandidate: types.ProcessedCandidate{
			FileName: "zoe.pdf",
			Profile: &types.CandidateProfile{
				Personal: types.PersonalInfo{Name: types.StringPtr("Zoë Müller")},
				Fallback: true,
			},
			Score:        types.ScoreBreakdown{MustHaveScore: 40, SemanticScore: 12, RecencyScore: 20, ImpactScore: 4, OverallScore: 76},
			Verification: types.VerificationReport{Issues: []string{"Invalid date range: Acme"}},
			SkillMatch:   &types.SkillMatchResult{MatchedSkills: []string{"Python"}, MissingSkills: []string{"Docker"}},
			Assessment:   &types.RoleAssessment{Score: 81},
			DedupAction:  types.DedupDuplicateDetected,
			Similarity:   &similarity,
		},
		Rank:                1,
		RankingReason:       "Deeper Python experience than #2",
		RecommendationLevel: types.RecommendHire,
	}
	p.PrintCandidate(c, CandidateFacts{YearsOfExperience: 6, HighestEducation: "master", CurrentRole: "Engineer at Acme"})

	out := buf.String()
	assert.Contains(t, out, "#1  Zoë Müller")
	assert.Contains(t, out, "local fallback")
	assert.Contains(t, out, "Overall 76.00")
	assert.Contains(t, out, "Assessment 81/100, Hire")
	assert.Contains(t, out, "similarity 91%")
	assert.Contains(t, out, "Invalid date range: Acme")

	// Every line of a box has the same rune width
	var widths []int
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		widths = append(widths, len([]rune(line)))
	}
	for _, w := range widths {
		assert.Equal(t, boxWidth, w)
	}
}

func TestPrintQuestions(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintQuestions(nil)
	p.PrintQuestions(&types.InterviewQuestions{})
	assert.Empty(t, buf.String())

	p.PrintQuestions(&types.InterviewQuestions{Technical: []string{"Explain Go interfaces"}, Degraded: true})
	assert.Contains(t, buf.String(), "INTERVIEW QUESTIONS (fallback)")
	assert.Contains(t, buf.String(), "Explain Go interfaces")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "ééééééé...", clip(strings.Repeat("é", 20), 10))
}
