package pipeline

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNoCandidates is returned when no document of a batch could be processed
var ErrNoCandidates = errors.New("no documents processed successfully")

// DocumentError records a document excluded from the batch
type DocumentError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// BatchError is a failure of the whole batch. The batch is marked failed in the store.
type BatchError struct {
	BatchID uuid.UUID
	Stage   string
	// Errors lists per-document failures collected before the batch failed
	Errors []DocumentError
	Cause  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %s failed at %s: %v", e.BatchID, e.Stage, e.Cause)
}

func (e *BatchError) Unwrap() error {
	return e.Cause
}
