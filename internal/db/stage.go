package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Stage collects the candidate writes of one batch run so CommitBatch can apply them
// together. Reads go through to the base store with the staged records laid over it.
// Records an earlier run of the same batch left behind are hidden, since the commit
// replaces them.
type Stage struct {
	base    CandidateStore
	batchID uuid.UUID
	now     func() time.Time

	mu      sync.Mutex
	records map[uuid.UUID]*Candidate
	created []uuid.UUID
	updated []uuid.UUID
}

var _ CandidateStore = (*Stage)(nil)

// NewStage creates an empty stage for batchID over base
func NewStage(base CandidateStore, batchID uuid.UUID) *Stage {
	return &Stage{
		base:    base,
		batchID: batchID,
		now:     time.Now,
		records: make(map[uuid.UUID]*Candidate),
	}
}

// hidden reports whether a base record belongs to an earlier run of the batch
func (s *Stage) hidden(c *Candidate) bool {
	_, staged := s.records[c.ID]
	return !staged && c.BatchID == s.batchID
}

// GetCandidateByEmail looks in the stage first, then in the base store
func (s *Stage) GetCandidateByEmail(ctx context.Context, email string) (*Candidate, error) {
	key := NormalizeEmail(email)
	s.mu.Lock()
	for _, c := range s.records {
		if c.Email != nil && *c.Email == key {
			s.mu.Unlock()
			return c.Clone(), nil
		}
	}
	s.mu.Unlock()

	c, err := s.base.GetCandidateByEmail(ctx, key)
	if err != nil || c == nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if staged, ok := s.records[c.ID]; ok {
		return staged.Clone(), nil
	}
	if s.hidden(c) {
		return nil, nil
	}
	return c, nil
}

// ListRecentCandidates returns the staged creates, newest first, followed by the
// visible base records
func (s *Stage) ListRecentCandidates(ctx context.Context, limit int) ([]Candidate, error) {
	base, err := s.base.ListRecentCandidates(ctx, limit)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Candidate, 0, len(s.created)+len(base))
	for i := len(s.created) - 1; i >= 0; i-- {
		out = append(out, *s.records[s.created[i]].Clone())
	}
	for i := range base {
		c := &base[i]
		if staged, ok := s.records[c.ID]; ok {
			out = append(out, *staged.Clone())
			continue
		}
		if !s.hidden(c) {
			out = append(out, *c)
		}
	}
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CreateCandidate stages an insert and assigns c its ID. A staged record with the
// same email is a unique violation, like the store's email index.
func (s *Stage) CreateCandidate(_ context.Context, c *Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Email = normalizedEmail(c.Email)
	if c.Email != nil {
		for _, staged := range s.records {
			if staged.Email != nil && *staged.Email == *c.Email {
				return persistenceErr("create candidate", fmt.Errorf("%w: %s", ErrDuplicateEmail, *c.Email))
			}
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.records[c.ID] = c.Clone()
	s.created = append(s.created, c.ID)
	return nil
}

// UpdateCandidate stages an overwrite of a staged or base record
func (s *Stage) UpdateCandidate(_ context.Context, c *Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Email = normalizedEmail(c.Email)
	c.UpdatedAt = s.now()
	if _, ok := s.records[c.ID]; !ok {
		s.updated = append(s.updated, c.ID)
	}
	s.records[c.ID] = c.Clone()
	return nil
}

// Commit returns the staged writes as one BatchCommit. finalize, when non-nil, is
// applied to every returned record.
func (s *Stage) Commit(status BatchStatus, processed int, finalize func(*Candidate)) BatchCommit {
	s.mu.Lock()
	defer s.mu.Unlock()
	collect := func(ids []uuid.UUID) []*Candidate {
		out := make([]*Candidate, 0, len(ids))
		for _, id := range ids {
			c := s.records[id].Clone()
			if finalize != nil {
				finalize(c)
			}
			out = append(out, c)
		}
		return out
	}
	return BatchCommit{
		Status:    status,
		Processed: processed,
		Creates:   collect(s.created),
		Updates:   collect(s.updated),
	}
}
