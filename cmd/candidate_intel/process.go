package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-intel/internal/config"
	"github.com/jonathan/candidate-intel/internal/dedup"
	"github.com/jonathan/candidate-intel/internal/fetch"
	"github.com/jonathan/candidate-intel/internal/logging"
	"github.com/jonathan/candidate-intel/internal/observability"
	"github.com/jonathan/candidate-intel/internal/pipeline"
	"github.com/jonathan/candidate-intel/internal/server"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a batch of résumés against a job description",
	Long: `Parses every résumé, extracts a structured profile, scores, verifies and assesses it
against the job description, merges it with previously stored candidates and ranks the batch.

Résumés may be PDF, DOCX, HTML or plain text.`,
	Example: `  candidate_intel process --jd job.txt --resume a.pdf --resume b.docx
  candidate_intel process --jd job.txt --resume ./resumes/ --out result.json --questions
  candidate_intel process --jd-url https://jobs.lever.co/acme/123 --resume ./resumes/`,
	RunE: runProcessCmd,
}

var (
	processJD        string
	processJDURL     string
	processResumes   []string
	processBatchID   string
	processOut       string
	processQuestions bool
	processWorkers   int
	processLogLevel  string
)

func init() {
	processCmd.Flags().StringVarP(&processJD, "jd", "j", "", "Path to the job description")
	processCmd.Flags().StringVar(&processJDURL, "jd-url", "", "URL of a job posting to use as the job description")
	processCmd.Flags().StringSliceVarP(&processResumes, "resume", "r", nil, "Résumé file or directory of résumés (repeatable, required)")
	processCmd.Flags().StringVar(&processBatchID, "batch-id", "", "Batch ID to (re)process (defaults to a new random ID)")
	processCmd.Flags().StringVarP(&processOut, "out", "o", "", "Write the batch result as JSON to this path")
	processCmd.Flags().BoolVar(&processQuestions, "questions", false, "Generate interview questions for every candidate")
	processCmd.Flags().IntVarP(&processWorkers, "workers", "w", 0, "Number of résumés processed concurrently")
	processCmd.Flags().StringVar(&processLogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	_ = processCmd.MarkFlagRequired("resume")
	processCmd.MarkFlagsOneRequired("jd", "jd-url")
	processCmd.MarkFlagsMutuallyExclusive("jd", "jd-url")

	rootCmd.AddCommand(processCmd)
}

// processFlags maps config keys to the flags that override them
var processFlags = map[string]string{
	"pipeline.questions": "questions",
	"pipeline.workers":   "workers",
	"log.level":          "log-level",
}

func runProcessCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(func(l *config.Loader) error {
		for key, name := range processFlags {
			if err := l.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jd, err := jobDescription(ctx, processJD, processJDURL)
	if err != nil {
		return err
	}
	batch, err := loadBatch(jd, processResumes, processBatchID)
	if err != nil {
		return err
	}

	rt, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if err := rt.withClient(ctx); err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		srv := server.New(server.Config{Addr: cfg.Metrics.Addr, Gatherer: rt.registry}, rt.store, rt.logger)
		go func() {
			if err := srv.Run(ctx); err != nil {
				rt.logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	result, err := runBatch(ctx, rt, batch)
	out := cmd.OutOrStdout()
	if err != nil {
		var batchErr *pipeline.BatchError
		if errors.As(err, &batchErr) {
			observability.NewPrinter(out).PrintFailures(failures(batchErr.Errors))
		}
		return err
	}

	printResult(out, result, cfg.Pipeline.Questions, time.Now())
	if processOut != "" {
		if err := writeResult(processOut, result); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Result written to %s\n", processOut)
	}
	return nil
}

// runBatch processes one batch with the configured store, client and metrics
func runBatch(ctx context.Context, rt *services, batch pipeline.Batch) (*pipeline.BatchResult, error) {
	policy, err := dedup.ParsePolicy(rt.cfg.Pipeline.DedupPolicy)
	if err != nil {
		return nil, err
	}
	progress := logging.Component(rt.logger, "progress")

	processor := pipeline.NewProcessor(pipeline.Options{
		Store:            rt.store,
		Client:           rt.client,
		Logger:           rt.logger,
		Metrics:          rt.metrics,
		Workers:          rt.cfg.Pipeline.Workers,
		FallbackProfiles: rt.cfg.Pipeline.FallbackProfiles,
		Questions:        rt.cfg.Pipeline.Questions,
		Dedup: []dedup.Option{
			dedup.WithWindow(rt.cfg.Pipeline.DedupWindow),
			dedup.WithPolicy(policy),
		},
		OnProgress: func(e pipeline.ProgressEvent) {
			progress.Debug(e.Message,
				zap.String(logging.FieldBatchID, e.BatchID),
				zap.String("stage", e.Stage),
				zap.String(logging.FieldFile, e.File))
		},
	})
	return processor.ProcessBatch(ctx, batch)
}

// jobDescription reads the job description from a file, or fetches the posting at url
func jobDescription(ctx context.Context, path, url string) (pipeline.Document, error) {
	if url == "" {
		doc, err := readDocument(path)
		if err != nil {
			return doc, fmt.Errorf("failed to read job description: %w", err)
		}
		return doc, nil
	}
	posting, err := fetch.JobPosting(ctx, url, nil)
	if err != nil {
		return pipeline.Document{}, err
	}
	return pipeline.Document{FileName: posting.FileName(), Data: []byte(posting.Text)}, nil
}

// loadBatch reads the résumés. Directories contribute every regular file they
// contain, without recursing.
func loadBatch(jd pipeline.Document, resumePaths []string, batchID string) (pipeline.Batch, error) {
	batch := pipeline.Batch{JobDescription: jd}
	if batchID != "" {
		id, err := uuid.Parse(batchID)
		if err != nil {
			return batch, fmt.Errorf("invalid batch id %q: %w", batchID, err)
		}
		batch.ID = id
	}

	for _, path := range resumePaths {
		info, err := os.Stat(path)
		if err != nil {
			return batch, fmt.Errorf("failed to read résumé: %w", err)
		}
		if !info.IsDir() {
			doc, err := readDocument(path)
			if err != nil {
				return batch, fmt.Errorf("failed to read résumé: %w", err)
			}
			batch.Documents = append(batch.Documents, doc)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return batch, fmt.Errorf("failed to list %s: %w", path, err)
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			doc, err := readDocument(filepath.Join(path, entry.Name()))
			if err != nil {
				return batch, fmt.Errorf("failed to read résumé: %w", err)
			}
			batch.Documents = append(batch.Documents, doc)
		}
	}
	if len(batch.Documents) == 0 {
		return batch, fmt.Errorf("no résumés found in %v", resumePaths)
	}
	return batch, nil
}

func readDocument(path string) (pipeline.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Document{}, err
	}
	return pipeline.Document{FileName: filepath.Base(path), Data: data}, nil
}

func failures(errs []pipeline.DocumentError) []observability.Failure {
	out := make([]observability.Failure, len(errs))
	for i, e := range errs {
		out[i] = observability.Failure{File: e.File, Error: e.Error}
	}
	return out
}

// printResult renders the batch summary, requirements and ranked candidates
func printResult(w io.Writer, result *pipeline.BatchResult, questions bool, now time.Time) {
	p := observability.NewPrinter(w)
	p.PrintBatchSummary(result.BatchID.String(), string(result.Status), result.Processed, result.Total, result.RankingDegraded)
	p.PrintRequirements(result.Requirements)
	for _, c := range result.Candidates {
		p.PrintCandidate(c, pipeline.Facts(c.Profile, now))
		if questions {
			p.PrintQuestions(c.Questions)
		}
	}
	p.PrintFailures(failures(result.Errors))
}

// writeResult writes result as indented JSON, creating parent directories
func writeResult(path string, result *pipeline.BatchResult) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
