package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/candidate-intel/internal/types"
)

// CandidateStore is the candidate half of a Store, used by deduplication
type CandidateStore interface {
	GetCandidateByEmail(ctx context.Context, email string) (*Candidate, error)
	ListRecentCandidates(ctx context.Context, limit int) ([]Candidate, error)
	CreateCandidate(ctx context.Context, c *Candidate) error
	UpdateCandidate(ctx context.Context, c *Candidate) error
}

// Store is implemented by DB and Memory
type Store interface {
	CandidateStore
	CreateBatch(ctx context.Context, id uuid.UUID, total int) error
	GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error)
	BeginBatch(ctx context.Context, id uuid.UUID, total int, reqs *types.RequirementSet) error
	CommitBatch(ctx context.Context, id uuid.UUID, commit BatchCommit) error
	FinishBatch(ctx context.Context, id uuid.UUID, status BatchStatus, processed int) error
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*Memory)(nil)
)
