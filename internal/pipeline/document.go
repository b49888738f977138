package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-intel/internal/dedup"
	"github.com/jonathan/candidate-intel/internal/entities"
	"github.com/jonathan/candidate-intel/internal/evidence"
	"github.com/jonathan/candidate-intel/internal/ingestion"
	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/logging"
	"github.com/jonathan/candidate-intel/internal/matching"
	"github.com/jonathan/candidate-intel/internal/observability"
	"github.com/jonathan/candidate-intel/internal/parsing"
	"github.com/jonathan/candidate-intel/internal/scoring"
	"github.com/jonathan/candidate-intel/internal/types"
)

// docResult is the outcome of one document task. Exactly one of candidate and err is set.
type docResult struct {
	candidate *types.ProcessedCandidate
	err       error
}

// traced runs fn inside a span named after the stage
func traced[T any](ctx context.Context, p *Processor, stage string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := observability.StartSpan(ctx, p.tracer, stage)
	v, err := fn(ctx)
	observability.EndSpan(span, err)
	return v, err
}

func stageErr(stage string, err error) error {
	return fmt.Errorf("%s: %w", stage, err)
}

// processDocument runs every per-document stage in order. Failures in parsing,
// profile extraction and persistence exclude the document; the matcher and the
// assessor degrade in place.
func (p *Processor) processDocument(ctx context.Context, batchID uuid.UUID, dd *dedup.Deduplicator, doc Document, reqs *types.RequirementSet, logger *zap.Logger) (res docResult) {
	logger = logger.With(zap.String(logging.FieldFile, doc.FileName))
	ctx, span := observability.StartSpan(ctx, p.tracer, "document", logging.FieldFile, doc.FileName)
	defer func() {
		observability.EndSpan(span, res.err)
		if res.err != nil {
			p.metrics.ObserveDocument("failed")
			logger.Warn("document excluded from batch", zap.Error(res.err))
			p.emit(batchID, "failed", doc.FileName, res.err.Error())
		} else {
			p.metrics.ObserveDocument("completed")
		}
	}()

	parsed, err := traced(ctx, p, StageParse, func(context.Context) (*types.ParsedDocument, error) {
		return ingestion.Parse(doc.Data, doc.FileName)
	})
	if err != nil {
		return docResult{err: stageErr(StageParse, err)}
	}
	text := parsed.RawText
	p.emit(batchID, StageParse, doc.FileName, fmt.Sprintf("parsed %d words with %s", parsed.Metadata.WordCount, parsed.Metadata.Parser))

	ents, _ := traced(ctx, p, StageEntities, func(context.Context) ([]types.Entity, error) {
		return entities.Extract(text), nil
	})

	profile, err := traced(ctx, p, StageProfile, func(ctx context.Context) (*types.CandidateProfile, error) {
		return p.extractProfile(ctx, text, ents, logger)
	})
	if err != nil {
		return docResult{err: stageErr(StageProfile, err)}
	}

	now := p.now()
	candidate := &types.ProcessedCandidate{
		FileName:     doc.FileName,
		Profile:      profile,
		Entities:     ents,
		Evidence:     evidence.Bind(profile, ents, text),
		Score:        scoring.ScoreAt(profile, reqs, now),
		Verification: scoring.VerifyAt(profile, ents, now),
	}
	if issues := candidate.Verification.Issues; len(issues) > 0 {
		logger.Info("verification issues", zap.Strings("issues", issues),
			zap.Float64("disagreement_rate", candidate.Verification.DisagreementRate))
	}

	candidate.SkillMatch, _ = traced(ctx, p, StageMatch, func(ctx context.Context) (*types.SkillMatchResult, error) {
		match, err := p.matcher.Match(ctx, profile, reqs)
		if err != nil {
			logging.Degraded(logger, matching.OpMatchSkills, err)
			p.metrics.ObserveDegraded("matcher")
			return matching.Degraded(reqs), nil
		}
		return match, nil
	})

	candidate.Assessment, _ = traced(ctx, p, StageAssess, func(ctx context.Context) (*types.RoleAssessment, error) {
		return p.assessor.Assess(ctx, profile, reqs), nil
	})
	if candidate.Assessment.Degraded {
		p.metrics.ObserveDegraded("assessor")
	}

	if _, err := traced(ctx, p, StageDedup, func(ctx context.Context) (types.DedupAction, error) {
		err := upsert(ctx, dd, batchID, candidate)
		return candidate.DedupAction, err
	}); err != nil {
		return docResult{err: stageErr(StageDedup, err)}
	}

	if p.questions {
		candidate.Questions, _ = traced(ctx, p, StageQuestions, func(ctx context.Context) (*types.InterviewQuestions, error) {
			return p.generator.Generate(ctx, profile, reqs, candidate.Assessment), nil
		})
		if candidate.Questions.Degraded {
			p.metrics.ObserveDegraded("questions")
		}
	}

	logger.Debug("document processed",
		zap.Float64("overall_score", candidate.Score.OverallScore),
		zap.Int("assessment_score", candidate.Assessment.Score),
		zap.String("dedup_action", string(candidate.DedupAction)))
	p.emit(batchID, StageDedup, doc.FileName, string(candidate.DedupAction))
	return docResult{candidate: candidate}
}

// extractProfile calls the profile service and, when it is unreachable and
// fallback is enabled, builds a local profile from the text and entities
func (p *Processor) extractProfile(ctx context.Context, text string, ents []types.Entity, logger *zap.Logger) (*types.CandidateProfile, error) {
	profile, err := parsing.ExtractProfile(ctx, text, p.client)
	if err == nil {
		return profile, nil
	}
	if !p.fallback || !errors.Is(err, llm.ErrExternalService) {
		return nil, err
	}
	logging.Degraded(logger, parsing.OpExtractProfile, err)
	p.metrics.ObserveDegraded("profile")
	return parsing.FallbackProfile(text, ents), nil
}

// upsert stages the candidate and records the dedup decision on it. For a detected
// duplicate CandidateID names the matched record, which stays untouched.
func upsert(ctx context.Context, dd *dedup.Deduplicator, batchID uuid.UUID, candidate *types.ProcessedCandidate) error {
	out, err := dd.Upsert(ctx, batchID, candidate.Profile, candidate.Score.OverallScore)
	if err != nil {
		return err
	}
	candidate.DedupAction = out.Action
	candidate.Similarity = out.Similarity
	if out.Candidate != nil {
		candidate.CandidateID = out.Candidate.ID.String()
	}
	return nil
}
