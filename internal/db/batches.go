package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/candidate-intel/internal/types"
)

// CreateBatch records a pending batch, or resets the total of an existing one
func (db *DB) CreateBatch(ctx context.Context, id uuid.UUID, total int) error {
	_, err := db.sql.ExecContext(ctx,
		`INSERT INTO batches (id, status, total_resumes, processed_resumes)
		 VALUES ($1, $2, $3, 0)
		 ON CONFLICT (id) DO UPDATE SET total_resumes = $3, updated_at = NOW()`,
		id, BatchPending, total,
	)
	if err != nil {
		return persistenceErr("create batch", err)
	}
	return nil
}

// GetBatch retrieves a batch by ID. It returns nil without error when the batch does not exist.
func (db *DB) GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error) {
	var (
		b       Batch
		reqJSON []byte
	)
	err := db.sql.QueryRowContext(ctx,
		`SELECT id, status, total_resumes, processed_resumes, jd_requirements, created_at, updated_at
		 FROM batches WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Status, &b.TotalResumes, &b.ProcessedResumes, &reqJSON, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, persistenceErr("get batch", err)
	}

	if len(reqJSON) > 0 {
		var reqs types.RequirementSet
		if err := json.Unmarshal(reqJSON, &reqs); err != nil {
			return nil, persistenceErr("get batch", fmt.Errorf("failed to unmarshal requirements: %w", err))
		}
		b.Requirements = &reqs
	}
	return &b, nil
}

// BeginBatch marks the batch processing and stores the frozen requirements.
// Candidates of an earlier run stay visible until CommitBatch replaces them.
func (db *DB) BeginBatch(ctx context.Context, id uuid.UUID, total int, reqs *types.RequirementSet) error {
	reqJSON, err := json.Marshal(reqs)
	if err != nil {
		return persistenceErr("begin batch", fmt.Errorf("failed to marshal requirements: %w", err))
	}

	_, err = db.sql.ExecContext(ctx,
		`INSERT INTO batches (id, status, total_resumes, processed_resumes, jd_requirements)
		 VALUES ($1, $2, $3, 0, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET status = $2, total_resumes = $3, processed_resumes = 0, jd_requirements = $4, updated_at = NOW()`,
		id, BatchProcessing, total, string(reqJSON),
	)
	if err != nil {
		return persistenceErr("begin batch", err)
	}
	return nil
}

// CommitBatch clears the candidates of an earlier run of the batch, writes the staged
// creates and updates and records the final status, in one transaction. Readers see
// either the previous state of the batch or the complete new one.
func (db *DB) CommitBatch(ctx context.Context, id uuid.UUID, commit BatchCommit) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM candidates WHERE batch_id = $1`, id); err != nil {
			return persistenceErr("clear batch candidates", err)
		}
		for _, c := range commit.Creates {
			if err := insertCandidate(ctx, tx, c); err != nil {
				return err
			}
		}
		for _, c := range commit.Updates {
			if err := updateCandidate(ctx, tx, c); err != nil {
				return err
			}
		}
		return finishBatch(ctx, tx, id, commit.Status, commit.Processed)
	})
}

// FinishBatch records the final status and processed count
func (db *DB) FinishBatch(ctx context.Context, id uuid.UUID, status BatchStatus, processed int) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		return finishBatch(ctx, tx, id, status, processed)
	})
}

func finishBatch(ctx context.Context, tx *sql.Tx, id uuid.UUID, status BatchStatus, processed int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE batches SET status = $2, processed_resumes = $3, updated_at = NOW() WHERE id = $1`,
		id, status, processed,
	)
	if err != nil {
		return persistenceErr("finish batch", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return persistenceErr("finish batch "+id.String(), ErrNotFound)
	}
	return nil
}
