package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/candidate-intel/internal/db"
	"github.com/jonathan/candidate-intel/internal/observability"
	"github.com/jonathan/candidate-intel/internal/types"
)

// failingReader returns err from every call
type failingReader struct {
	err error
}

func (f failingReader) GetBatch(context.Context, uuid.UUID) (*db.Batch, error) {
	return nil, f.err
}

func (f failingReader) ListRecentCandidates(context.Context, int) ([]db.Candidate, error) {
	return nil, f.err
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := New(Config{}, db.NewMemory(), nil)
	rec := do(t, s.Handler(), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestHandleGetBatch(t *testing.T) {
	store := db.NewMemory()
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, store.BeginBatch(ctx, id, 3, &types.RequirementSet{Skills: []string{"Go"}, MustHave: []string{"Go"}}))
	require.NoError(t, store.FinishBatch(ctx, id, db.BatchCompletedWithWarnings, 2))
	s := New(Config{}, store, nil)

	t.Run("found", func(t *testing.T) {
		rec := do(t, s.Handler(), "/batches/"+id.String())
		require.Equal(t, http.StatusOK, rec.Code)

		var resp BatchResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, id.String(), resp.BatchID)
		assert.Equal(t, db.BatchCompletedWithWarnings, resp.Status)
		assert.Equal(t, 3, resp.TotalResumes)
		assert.Equal(t, 2, resp.ProcessedResumes)
		assert.Equal(t, []string{"Go"}, resp.Requirements.MustHave)
	})

	t.Run("not found", func(t *testing.T) {
		rec := do(t, s.Handler(), "/batches/"+uuid.NewString())
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := do(t, s.Handler(), "/batches/not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid batch ID")
	})
}

func TestHandleListCandidates(t *testing.T) {
	store := db.NewMemory()
	ctx := context.Background()
	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		require.NoError(t, store.CreateCandidate(ctx, &db.Candidate{Email: types.StringPtr(email), OverallScore: 10}))
	}
	s := New(Config{}, store, nil)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCount  int
	}{
		{name: "default limit", target: "/candidates", wantStatus: http.StatusOK, wantCount: 3},
		{name: "limited", target: "/candidates?limit=2", wantStatus: http.StatusOK, wantCount: 2},
		{name: "zero", target: "/candidates?limit=0", wantStatus: http.StatusBadRequest},
		{name: "too large", target: "/candidates?limit=1000", wantStatus: http.StatusBadRequest},
		{name: "not a number", target: "/candidates?limit=ten", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s.Handler(), tt.target)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var out []CandidateSummary
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			assert.Len(t, out, tt.wantCount)
			assert.Equal(t, "c@x.io", out[0].Email, "newest first")
			assert.NotNil(t, out[0].MatchedSkills)
		})
	}
}

func TestStoreErrors(t *testing.T) {
	s := New(Config{}, failingReader{err: &db.PersistenceError{Op: "get batch", Cause: errors.New("connection refused")}}, nil)

	rec := do(t, s.Handler(), "/batches/"+uuid.NewString())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")

	rec = do(t, s.Handler(), "/candidates")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(&db.PersistenceError{Op: "x", Cause: db.ErrNotFound}))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	metrics.ObserveDocument("completed")

	withMetrics := New(Config{Gatherer: reg}, db.NewMemory(), nil)
	rec := do(t, withMetrics.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `candidate_intel_documents_total{status="completed"} 1`)

	withoutMetrics := New(Config{}, db.NewMemory(), nil)
	assert.Equal(t, http.StatusNotFound, do(t, withoutMetrics.Handler(), "/metrics").Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := New(Config{}, db.NewMemory(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
