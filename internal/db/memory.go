package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/candidate-intel/internal/types"
)

// Memory is an in-process store with the same semantics as DB, including the
// unique email index. It backs runs without a database and the package tests.
type Memory struct {
	mu         sync.Mutex
	candidates map[uuid.UUID]*Candidate
	batches    map[uuid.UUID]*Batch
	seq        int
	now        func() time.Time
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		candidates: make(map[uuid.UUID]*Candidate),
		batches:    make(map[uuid.UUID]*Batch),
		now:        time.Now,
	}
}

// stamp returns a strictly increasing timestamp so recency ordering is total
func (m *Memory) stamp() time.Time {
	m.seq++
	return m.now().Add(time.Duration(m.seq) * time.Microsecond)
}

// clone deep-copies through JSON so callers never share state with the store
func clone[T any](v *T) *T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("db: clone: %v", err))
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("db: clone: %v", err))
	}
	return &out
}

func emailTaken(candidates map[uuid.UUID]*Candidate, email *string, except uuid.UUID) bool {
	if email == nil {
		return false
	}
	for id, c := range candidates {
		if id != except && c.Email != nil && *c.Email == *email {
			return true
		}
	}
	return false
}

// GetCandidateByEmail retrieves a candidate by email, case-insensitively
func (m *Memory) GetCandidateByEmail(_ context.Context, email string) (*Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := NormalizeEmail(email)
	for _, c := range m.candidates {
		if c.Email != nil && *c.Email == key {
			return clone(c), nil
		}
	}
	return nil, nil
}

// ListRecentCandidates returns up to limit candidates, newest first
func (m *Memory) ListRecentCandidates(_ context.Context, limit int) ([]Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Candidate, 0, len(m.candidates))
	for _, c := range m.candidates {
		out = append(out, *clone(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CreateCandidate inserts c and sets its ID and timestamps
func (m *Memory) CreateCandidate(_ context.Context, c *Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Email = normalizedEmail(c.Email)
	if emailTaken(m.candidates, c.Email, uuid.Nil) {
		return persistenceErr("create candidate", fmt.Errorf("%w: %s", ErrDuplicateEmail, *c.Email))
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = m.stamp()
	c.UpdatedAt = c.CreatedAt
	m.candidates[c.ID] = clone(c)
	return nil
}

// UpdateCandidate overwrites the stored candidate with c's fields
func (m *Memory) UpdateCandidate(_ context.Context, c *Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.candidates[c.ID]
	if !ok {
		return persistenceErr("update candidate "+c.ID.String(), ErrNotFound)
	}
	c.Email = normalizedEmail(c.Email)
	if emailTaken(m.candidates, c.Email, c.ID) {
		return persistenceErr("update candidate", fmt.Errorf("%w: %s", ErrDuplicateEmail, *c.Email))
	}
	c.CreatedAt = stored.CreatedAt
	c.UpdatedAt = m.stamp()
	m.candidates[c.ID] = clone(c)
	return nil
}

// CreateBatch records a pending batch, or resets the total of an existing one
func (m *Memory) CreateBatch(_ context.Context, id uuid.UUID, total int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.batches[id]; ok {
		b.TotalResumes = total
		b.UpdatedAt = m.stamp()
		return nil
	}
	now := m.stamp()
	m.batches[id] = &Batch{ID: id, Status: BatchPending, TotalResumes: total, CreatedAt: now, UpdatedAt: now}
	return nil
}

// GetBatch retrieves a batch by ID, or nil when it does not exist
func (m *Memory) GetBatch(_ context.Context, id uuid.UUID) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, nil
	}
	return clone(b), nil
}

// BeginBatch marks the batch processing. Earlier candidates stay until CommitBatch.
func (m *Memory) BeginBatch(_ context.Context, id uuid.UUID, total int, reqs *types.RequirementSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.stamp()
	b, ok := m.batches[id]
	if !ok {
		b = &Batch{ID: id, CreatedAt: now}
		m.batches[id] = b
	}
	b.Status = BatchProcessing
	b.TotalResumes = total
	b.ProcessedResumes = 0
	if reqs != nil {
		b.Requirements = clone(reqs)
	}
	b.UpdatedAt = now
	return nil
}

// CommitBatch applies commit to a copy of the candidate set and swaps it in only
// when every write succeeds
func (m *Memory) CommitBatch(_ context.Context, id uuid.UUID, commit BatchCommit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return persistenceErr("finish batch "+id.String(), ErrNotFound)
	}

	next := make(map[uuid.UUID]*Candidate, len(m.candidates)+len(commit.Creates))
	for cid, c := range m.candidates {
		if c.BatchID != id {
			next[cid] = c
		}
	}
	for _, in := range commit.Creates {
		c := in.Clone()
		c.Email = normalizedEmail(c.Email)
		if emailTaken(next, c.Email, uuid.Nil) {
			return persistenceErr("create candidate", fmt.Errorf("%w: %s", ErrDuplicateEmail, *c.Email))
		}
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.CreatedAt = m.stamp()
		c.UpdatedAt = c.CreatedAt
		next[c.ID] = c
	}
	for _, in := range commit.Updates {
		stored, ok := next[in.ID]
		if !ok {
			return persistenceErr("update candidate "+in.ID.String(), ErrNotFound)
		}
		c := in.Clone()
		c.Email = normalizedEmail(c.Email)
		if emailTaken(next, c.Email, c.ID) {
			return persistenceErr("update candidate", fmt.Errorf("%w: %s", ErrDuplicateEmail, *c.Email))
		}
		c.CreatedAt = stored.CreatedAt
		c.UpdatedAt = m.stamp()
		next[c.ID] = c
	}

	m.candidates = next
	b.Status = commit.Status
	b.ProcessedResumes = commit.Processed
	b.UpdatedAt = m.stamp()
	return nil
}

// FinishBatch records the final status and processed count
func (m *Memory) FinishBatch(_ context.Context, id uuid.UUID, status BatchStatus, processed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return persistenceErr("finish batch "+id.String(), ErrNotFound)
	}
	b.Status = status
	b.ProcessedResumes = processed
	b.UpdatedAt = m.stamp()
	return nil
}
