package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-intel/internal/db"
	"github.com/jonathan/candidate-intel/internal/types"
)

// BatchResponse represents the response for GET /batches/{id}
type BatchResponse struct {
	BatchID          string                `json:"batch_id"`
	Status           db.BatchStatus        `json:"status"`
	TotalResumes     int                   `json:"total_resumes"`
	ProcessedResumes int                   `json:"processed_resumes"`
	Requirements     *types.RequirementSet `json:"requirements,omitempty"`
	UpdatedAt        string                `json:"updated_at"`
}

// CandidateSummary is one entry of GET /candidates
type CandidateSummary struct {
	ID            string   `json:"id"`
	BatchID       string   `json:"batch_id"`
	Name          string   `json:"name,omitempty"`
	Email         string   `json:"email,omitempty"`
	OverallScore  float64  `json:"overall_score"`
	Rank          *int     `json:"rank,omitempty"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
	UpdatedAt     string   `json:"updated_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetBatch returns the status of a batch
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	batchID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid batch ID format")
		return
	}

	batch, err := s.store.GetBatch(r.Context(), batchID)
	if err != nil {
		s.logger.Error("failed to get batch", zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), "Failed to load batch")
		return
	}
	if batch == nil {
		s.errorResponse(w, http.StatusNotFound, "Batch not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, BatchResponse{
		BatchID:          batch.ID.String(),
		Status:           batch.Status,
		TotalResumes:     batch.TotalResumes,
		ProcessedResumes: batch.ProcessedResumes,
		Requirements:     batch.Requirements,
		UpdatedAt:        batch.UpdatedAt.Format(time.RFC3339),
	})
}

// handleListCandidates returns the most recently created candidates
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	limit := defaultCandidateLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxCandidateLimit {
			s.errorResponse(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxCandidateLimit))
			return
		}
		limit = n
	}

	candidates, err := s.store.ListRecentCandidates(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list candidates", zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), "Failed to list candidates")
		return
	}

	out := make([]CandidateSummary, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, CandidateSummary{
			ID:            c.ID.String(),
			BatchID:       c.BatchID.String(),
			Name:          types.Deref(c.Name),
			Email:         types.Deref(c.Email),
			OverallScore:  c.OverallScore,
			Rank:          c.Rank,
			MatchedSkills: append([]string{}, c.MatchedSkills...),
			MissingSkills: append([]string{}, c.MissingSkills...),
			UpdatedAt:     c.UpdatedAt.Format(time.RFC3339),
		})
	}
	s.jsonResponse(w, http.StatusOK, out)
}
