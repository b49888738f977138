package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-intel/internal/config"
	"github.com/jonathan/candidate-intel/internal/db"
	"github.com/jonathan/candidate-intel/internal/dedup"
	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/llm/llmtest"
	"github.com/jonathan/candidate-intel/internal/matching"
	"github.com/jonathan/candidate-intel/internal/observability"
	"github.com/jonathan/candidate-intel/internal/parsing"
	"github.com/jonathan/candidate-intel/internal/pipeline"
	"github.com/jonathan/candidate-intel/internal/ranking"
)

const testProfile = `{
	"personal": {"name": "Ana Ruiz", "email": "ana@example.com", "phone": null, "location": "Lisbon", "linkedin": null},
	"summary": "Platform engineer",
	"experience": [{"company": "Globex", "role": "SRE", "start_date": "2019", "end_date": "Present", "achievements": ["Halved deploy time"], "technologies": ["Go"]}],
	"education": [{"institution": "IST", "degree": "Master of Science", "field": "CS", "year": "2018"}],
	"skills": ["Go", "Kubernetes"],
	"certifications": []
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, key := range []string{"LLM_API_KEY", "DATABASE_URL", "REDIS_ADDR", "METRICS_ADDR"} {
		t.Setenv(config.EnvPrefix+"_"+key, "")
	}
	cfg, err := config.NewLoader().Load("")
	require.NoError(t, err)
	cfg.Pipeline.Workers = 1
	return cfg
}

func testServices(t *testing.T, client llm.Client) *services {
	t.Helper()
	reg := prometheus.NewRegistry()
	return &services{
		cfg:      testConfig(t),
		logger:   zap.NewNop(),
		registry: reg,
		metrics:  observability.NewMetrics(reg),
		store:    db.NewMemory(),
		client:   client,
	}
}

func scripted() *llmtest.Scripted {
	return llmtest.NewScripted().
		On(parsing.OpExtractRequirements, `{"skills": ["Go"], "must_have": ["Go"], "experience": [], "education": []}`).
		On(parsing.OpExtractProfile, testProfile).
		On(matching.OpMatchSkills, `{"matched_skills": ["Go"], "missing_skills": [], "additional_skills": ["Kubernetes"]}`).
		On(ranking.OpAssessRole, `{"assessment": "Solid", "score": 77, "strengths": ["Go"], "gaps": [], "matched_requirements": ["Go"], "missing_requirements": [], "recommendation": "Hire"}`).
		On(dedup.OpCheckDuplicate, `{"is_duplicate": false, "matched_candidate_index": null, "similarity": 0, "reason": ""}`).
		On(ranking.OpRankCandidates, `{"rankings": [{"original_index": 0, "rank": 1, "ranking_reason": "Only candidate", "recommendation_level": "Hire"}]}`)
}

func TestLoadBatch(t *testing.T) {
	dir := t.TempDir()
	jd := pipeline.Document{FileName: "jd.txt", Data: []byte("Go engineer")}
	single := writeFile(t, dir, "single.txt", "resume one")

	resumes := filepath.Join(dir, "resumes")
	require.NoError(t, os.Mkdir(resumes, 0o755))
	writeFile(t, resumes, "a.txt", "resume a")
	writeFile(t, resumes, "b.txt", "resume b")
	require.NoError(t, os.Mkdir(filepath.Join(resumes, "nested"), 0o755))

	t.Run("files and directories", func(t *testing.T) {
		batch, err := loadBatch(jd, []string{single, resumes}, "")
		require.NoError(t, err)
		assert.Equal(t, "jd.txt", batch.JobDescription.FileName)
		names := make([]string, 0, len(batch.Documents))
		for _, d := range batch.Documents {
			names = append(names, d.FileName)
		}
		assert.Equal(t, []string{"single.txt", "a.txt", "b.txt"}, names)
		assert.Equal(t, uuid.Nil, batch.ID)
	})

	t.Run("explicit batch id", func(t *testing.T) {
		batch, err := loadBatch(jd, []string{single}, "0b8e7c2e-6f1d-4d35-9a43-52f9b6f0b7a1")
		require.NoError(t, err)
		assert.Equal(t, "0b8e7c2e-6f1d-4d35-9a43-52f9b6f0b7a1", batch.ID.String())
	})

	tests := []struct {
		name    string
		resumes []string
		batchID string
		wantErr string
	}{
		{name: "missing resume", resumes: []string{filepath.Join(dir, "nope.pdf")}, wantErr: "failed to read résumé"},
		{name: "empty directory", resumes: []string{filepath.Join(resumes, "nested")}, wantErr: "no résumés found"},
		{name: "bad batch id", resumes: []string{single}, batchID: "batch-7", wantErr: "invalid batch id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadBatch(jd, tt.resumes, tt.batchID)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestJobDescription(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "jd.txt", "Go engineer")

	t.Run("from file", func(t *testing.T) {
		doc, err := jobDescription(context.Background(), path, "")
		require.NoError(t, err)
		assert.Equal(t, "jd.txt", doc.FileName)
		assert.Equal(t, "Go engineer", string(doc.Data))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := jobDescription(context.Background(), filepath.Join(dir, "nope.txt"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read job description")
	})

	t.Run("from url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body><main><p>Senior Go engineer</p><p>Required: Kubernetes</p></main></body></html>`))
		}))
		defer srv.Close()

		doc, err := jobDescription(context.Background(), "", srv.URL+"/jobs/1")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(doc.FileName, ".txt"))
		assert.Equal(t, "Senior Go engineer\nRequired: Kubernetes", string(doc.Data))
	})
}

func TestRunBatch(t *testing.T) {
	client := scripted()
	rt := testServices(t, client)

	result, err := runBatch(context.Background(), rt, pipeline.Batch{
		JobDescription: pipeline.Document{FileName: "jd.txt", Data: []byte("Go engineer, Go required")},
		Documents:      []pipeline.Document{{FileName: "ana.txt", Data: []byte("Ana Ruiz\nana@example.com\nGo, Kubernetes")}},
	})
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, db.BatchCompleted, result.Status)

	stored, err := rt.store.GetCandidateByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)

	var buf bytes.Buffer
	printResult(&buf, result, false, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	out := buf.String()
	assert.Contains(t, out, "BATCH SUMMARY")
	assert.Contains(t, out, "#1  Ana Ruiz")
	assert.Contains(t, out, "SRE at Globex")
	assert.Contains(t, out, "Assessment 77/100, Hire")
	assert.NotContains(t, out, "FAILED DOCUMENTS")
}

func TestRunBatch_BadDedupPolicy(t *testing.T) {
	rt := testServices(t, scripted())
	rt.cfg.Pipeline.DedupPolicy = "sometimes"

	_, err := runBatch(context.Background(), rt, pipeline.Batch{})
	assert.Error(t, err)
}

func TestRunBatch_AllDocumentsFail(t *testing.T) {
	rt := testServices(t, scripted())

	_, err := runBatch(context.Background(), rt, pipeline.Batch{
		JobDescription: pipeline.Document{FileName: "jd.txt", Data: []byte("Go engineer")},
		Documents:      []pipeline.Document{{FileName: "blank.txt", Data: []byte("   ")}},
	})
	var batchErr *pipeline.BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.True(t, errors.Is(err, pipeline.ErrNoCandidates))
	require.Len(t, batchErr.Errors, 1)

	var buf bytes.Buffer
	observability.NewPrinter(&buf).PrintFailures(failures(batchErr.Errors))
	assert.Contains(t, buf.String(), "blank.txt")
}

func TestWriteResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "result.json")
	result := &pipeline.BatchResult{Status: db.BatchCompletedWithWarnings, Processed: 1, Total: 2,
		Errors: []pipeline.DocumentError{{File: "x.pdf", Error: "parse: unreadable document"}}}

	require.NoError(t, writeResult(path, result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "completed_with_warnings", decoded["status"])
	assert.Equal(t, 2.0, decoded["total"])
	assert.Len(t, decoded["errors"], 1)
}

func TestNewServices_MemoryStore(t *testing.T) {
	cfg := testConfig(t)

	rt, err := newServices(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = rt.Close() }()

	assert.IsType(t, &db.Memory{}, rt.store)
	assert.NotNil(t, rt.metrics)

	err = rt.withClient(context.Background())
	require.Error(t, err, "no API key is configured")
	assert.Contains(t, err.Error(), "invalid llm configuration")
	assert.Nil(t, rt.client)
}

func TestServicesClose(t *testing.T) {
	var order []int
	boom := errors.New("boom")
	rt := &services{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return boom },
	}}

	err := rt.Close()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, rt.Close(), "closing twice is a no-op")
}
