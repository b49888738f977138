package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/candidate-intel/internal/db"
	"github.com/jonathan/candidate-intel/internal/ingestion"
	"github.com/jonathan/candidate-intel/internal/logging"
	"github.com/jonathan/candidate-intel/internal/observability"
	"github.com/jonathan/candidate-intel/internal/parsing"
	"github.com/jonathan/candidate-intel/internal/types"
)

// ProcessBatch extracts the requirements, processes every document concurrently
// and ranks the candidates that survived. Candidate writes are staged while the
// documents run and committed with the rankings in one store transaction, so a
// failed batch writes no candidates. Per-document failures are reported in
// BatchResult.Errors. A requirement extraction failure, a store failure or a
// batch without a single processed document returns a *BatchError.
func (p *Processor) ProcessBatch(ctx context.Context, batch Batch) (result *BatchResult, err error) {
	start := time.Now()
	id := batch.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	total := len(batch.Documents)
	logger := logging.WithBatch(p.logger, id.String())

	ctx, span := observability.StartSpan(ctx, p.tracer, "batch",
		logging.FieldBatchID, id.String(), "documents", strconv.Itoa(total))
	defer func() {
		observability.EndSpan(span, err)
		p.metrics.ObserveBatch(time.Since(start))
	}()

	logger.Info("batch started", zap.Int("documents", total))
	if err := p.store.CreateBatch(ctx, id, total); err != nil {
		return nil, &BatchError{BatchID: id, Stage: StageStore, Cause: err}
	}

	// Frozen before any document task starts
	reqs, err := traced(ctx, p, StageRequirements, func(ctx context.Context) (*types.RequirementSet, error) {
		return p.extractRequirements(ctx, batch.JobDescription)
	})
	if err != nil {
		return nil, p.fail(ctx, logger, id, StageRequirements, err, nil)
	}
	p.emit(id, StageRequirements, batch.JobDescription.FileName,
		fmt.Sprintf("%d skills, %d must-have", len(reqs.Skills), len(reqs.MustHave)))

	if err := p.store.BeginBatch(ctx, id, total, reqs); err != nil {
		return nil, p.fail(ctx, logger, id, StageStore, err, nil)
	}

	stage := db.NewStage(p.store, id)
	dd := p.dedup.WithStore(stage)
	results := make([]docResult, total)
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, doc := range batch.Documents {
		g.Go(func() error {
			results[i] = p.processDocument(ctx, id, dd, doc, reqs, logger)
			return nil
		})
	}
	_ = g.Wait()

	processed := make([]types.ProcessedCandidate, 0, total)
	docErrs := make([]DocumentError, 0)
	for i, r := range results {
		if r.err != nil {
			docErrs = append(docErrs, DocumentError{File: batch.Documents[i].FileName, Error: r.err.Error()})
			continue
		}
		processed = append(processed, *r.candidate)
	}

	if err := ctx.Err(); err != nil {
		return nil, p.fail(ctx, logger, id, "documents", err, docErrs)
	}
	if len(processed) == 0 {
		return nil, p.fail(ctx, logger, id, "documents", ErrNoCandidates, docErrs)
	}

	// Ranking sees the complete batch
	ranked, _ := traced(ctx, p, StageRank, func(ctx context.Context) ([]types.RankedCandidate, error) {
		return p.ranker.Rank(ctx, processed, reqs), nil
	})
	rankingDegraded := len(ranked) > 0 && ranked[0].Degraded
	if rankingDegraded {
		p.metrics.ObserveDegraded("ranker")
	}

	status := db.BatchCompleted
	if len(docErrs) > 0 {
		status = db.BatchCompletedWithWarnings
	}
	commit := stage.Commit(status, len(processed), p.rankingWriter(ranked))
	if err := p.store.CommitBatch(ctx, id, commit); err != nil {
		return nil, p.fail(ctx, logger, id, StageStore, err, docErrs)
	}

	logger.Info("batch completed",
		zap.String("status", string(status)),
		zap.Int("processed", len(processed)),
		zap.Int("failed", len(docErrs)),
		zap.Bool("ranking_degraded", rankingDegraded),
		zap.Duration("duration", time.Since(start)))

	return &BatchResult{
		BatchID:         id,
		Status:          status,
		Processed:       len(processed),
		Total:           total,
		Requirements:    reqs,
		Candidates:      ranked,
		Errors:          docErrs,
		RankingDegraded: rankingDegraded,
	}, nil
}

func (p *Processor) extractRequirements(ctx context.Context, jd Document) (*types.RequirementSet, error) {
	parsed, err := ingestion.Parse(jd.Data, jd.FileName)
	if err != nil {
		return nil, err
	}
	return parsing.ExtractRequirements(ctx, parsed.RawText, p.client)
}

// fail marks the batch failed and builds the error returned to the caller.
// The store write ignores cancellation so a cancelled batch is still recorded.
func (p *Processor) fail(ctx context.Context, logger *zap.Logger, id uuid.UUID, stage string, cause error, docErrs []DocumentError) error {
	if err := p.store.FinishBatch(context.WithoutCancel(ctx), id, db.BatchFailed, 0); err != nil {
		logger.Error("failed to mark batch failed", zap.Error(err))
	}
	logger.Error("batch failed", zap.String("stage", stage), zap.Error(cause), zap.Int("failed_documents", len(docErrs)))
	return &BatchError{BatchID: id, Stage: stage, Errors: docErrs, Cause: cause}
}

// rankingWriter returns the finalize step of the batch commit. A stored record takes
// the rank, score and skill match of the best ranked document that created or updated
// it. A duplicate_detected document wrote nothing, so it never touches the record it matched.
func (p *Processor) rankingWriter(ranked []types.RankedCandidate) func(*db.Candidate) {
	best := make(map[string]types.RankedCandidate, len(ranked))
	for _, c := range ranked {
		if c.DedupAction == types.DedupDuplicateDetected || c.CandidateID == "" {
			continue
		}
		if prev, ok := best[c.CandidateID]; !ok || c.Rank < prev.Rank {
			best[c.CandidateID] = c
		}
	}
	return func(rec *db.Candidate) {
		c, ok := best[rec.ID.String()]
		if !ok {
			return
		}
		rank := c.Rank
		rec.Rank = &rank
		rec.OverallScore = c.Score.OverallScore
		rec.Insights = p.insights(&rec.Profile, c)
		rec.SetSkillMatch(c.SkillMatch)
	}
}

func (p *Processor) insights(profile *types.CandidateProfile, c types.RankedCandidate) *db.Insights {
	facts := Facts(profile, p.now())
	score := c.Score
	return &db.Insights{
		YearsOfExperience:   facts.YearsOfExperience,
		HighestEducation:    facts.HighestEducation,
		CurrentRole:         facts.CurrentRole,
		Score:               &score,
		Assessment:          c.Assessment,
		RankingReason:       c.RankingReason,
		RecommendationLevel: c.RecommendationLevel,
	}
}

// Facts derives the summary facts shown next to a candidate
func Facts(profile *types.CandidateProfile, now time.Time) observability.CandidateFacts {
	facts := observability.CandidateFacts{
		YearsOfExperience: parsing.YearsOfExperience(profile, now),
		HighestEducation:  parsing.HighestEducation(profile),
	}
	if cur := parsing.CurrentPosition(profile); cur != nil {
		switch {
		case cur.Role != "" && cur.Company != "":
			facts.CurrentRole = cur.Role + " at " + cur.Company
		case cur.Role != "":
			facts.CurrentRole = cur.Role
		default:
			facts.CurrentRole = cur.Company
		}
	}
	return facts
}
