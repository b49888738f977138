// Package pipeline runs a batch of résumés against one job description:
// requirements are extracted once, every document is processed in parallel,
// and the surviving candidates are ranked and stored together.
package pipeline

import (
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-intel/internal/db"
	"github.com/jonathan/candidate-intel/internal/dedup"
	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/logging"
	"github.com/jonathan/candidate-intel/internal/matching"
	"github.com/jonathan/candidate-intel/internal/observability"
	"github.com/jonathan/candidate-intel/internal/ranking"
	"github.com/jonathan/candidate-intel/internal/types"
)

// DefaultWorkers is the number of documents processed concurrently when Options.Workers is zero
const DefaultWorkers = 4

// Document is one uploaded file
type Document struct {
	FileName string
	Data     []byte
}

// Batch is one job description and the résumés ranked against it.
// A zero ID is replaced with a new random one.
type Batch struct {
	ID             uuid.UUID
	JobDescription Document
	Documents      []Document
}

// BatchResult is the ranked outcome of a batch
type BatchResult struct {
	BatchID         uuid.UUID               `json:"batch_id"`
	Status          db.BatchStatus          `json:"status"`
	Processed       int                     `json:"processed"`
	Total           int                     `json:"total"`
	Requirements    *types.RequirementSet   `json:"requirements"`
	Candidates      []types.RankedCandidate `json:"candidates"`
	Errors          []DocumentError         `json:"errors,omitempty"`
	RankingDegraded bool                    `json:"ranking_degraded"`
}

// Stage names reported in progress events and used as span names
const (
	StageRequirements = "requirements"
	StageParse        = "parse"
	StageEntities     = "entities"
	StageProfile      = "profile"
	StageEvidence     = "evidence"
	StageScore        = "score"
	StageMatch        = "match"
	StageAssess       = "assess"
	StageDedup        = "dedup"
	StageQuestions    = "questions"
	StageRank         = "rank"
	StageStore        = "store"
)

// ProgressEvent represents a progress update during batch processing
type ProgressEvent struct {
	BatchID string `json:"batch_id"`
	Stage   string `json:"stage"`
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

// ProgressCallback is called from document workers concurrently and must be safe for that
type ProgressCallback func(event ProgressEvent)

// Options configures a Processor. Store and Client are required.
type Options struct {
	Store  db.Store
	Client llm.Client
	Logger *zap.Logger
	// Metrics may be nil
	Metrics        *observability.Metrics
	TracerProvider trace.TracerProvider
	Workers        int
	// FallbackProfiles builds a local profile when the profile service is unavailable
	FallbackProfiles bool
	// Questions generates interview questions for every candidate
	Questions  bool
	Dedup      []dedup.Option
	OnProgress ProgressCallback
	// Now is the clock used by scoring, verification and derived insights
	Now func() time.Time
}

// Processor runs batches. It is safe for concurrent use across batches.
type Processor struct {
	store     db.Store
	client    llm.Client
	logger    *zap.Logger
	metrics   *observability.Metrics
	tracer    trace.Tracer
	workers   int
	fallback  bool
	questions bool
	progress  ProgressCallback
	now       func() time.Time

	matcher   *matching.Matcher
	assessor  *ranking.Assessor
	ranker    *ranking.Ranker
	generator *ranking.QuestionGenerator
	dedup     *dedup.Deduplicator
}

// NewProcessor wires the stage components around the injected store and client
func NewProcessor(opts Options) *Processor {
	logger := logging.Component(opts.Logger, "pipeline")
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Processor{
		store:     opts.Store,
		client:    opts.Client,
		logger:    logger,
		metrics:   opts.Metrics,
		tracer:    observability.Tracer(opts.TracerProvider),
		workers:   workers,
		fallback:  opts.FallbackProfiles,
		questions: opts.Questions,
		progress:  opts.OnProgress,
		now:       now,
		matcher:   matching.NewMatcher(opts.Client, opts.Logger),
		assessor:  ranking.NewAssessor(opts.Client, opts.Logger),
		ranker:    ranking.NewRanker(opts.Client, opts.Logger),
		generator: ranking.NewQuestionGenerator(opts.Client, opts.Logger),
		dedup:     dedup.New(opts.Store, opts.Client, opts.Logger, opts.Dedup...),
	}
}

func (p *Processor) emit(batchID uuid.UUID, stage, file, message string) {
	if p.progress != nil {
		p.progress(ProgressEvent{BatchID: batchID.String(), Stage: stage, File: file, Message: message})
	}
}
