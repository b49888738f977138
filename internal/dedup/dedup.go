// Package dedup persists candidate profiles exactly once per document, matching
// incoming profiles against the store by email and by a fuzzy similarity check.
package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-intel/internal/db"
	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/logging"
	"github.com/jonathan/candidate-intel/internal/parsing"
	"github.com/jonathan/candidate-intel/internal/prompts"
	"github.com/jonathan/candidate-intel/internal/schemas"
	"github.com/jonathan/candidate-intel/internal/types"
)

// OpCheckDuplicate is the operation name for fuzzy duplicate checks
const OpCheckDuplicate = "candidate.dedup"

// DefaultWindow is how many recent candidates the fuzzy check compares against
const DefaultWindow = 50

// CallOptions are used for the fuzzy duplicate check
var CallOptions = llm.CallOptions{
	Operation:   OpCheckDuplicate,
	Temperature: 0.1,
	MaxTokens:   300,
	Timeout:     30 * time.Second,
}

// FailurePolicy decides what a failed fuzzy check means
type FailurePolicy int

const (
	// FailOpen treats a failed check as "no duplicate" and creates the candidate
	FailOpen FailurePolicy = iota
	// FailClosed returns the check's error and writes nothing
	FailClosed
)

// ParsePolicy maps "open" or "closed" to a FailurePolicy
func ParsePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open", "fail_open":
		return FailOpen, nil
	case "closed", "fail_closed":
		return FailClosed, nil
	default:
		return FailOpen, fmt.Errorf("unknown dedup policy %q", s)
	}
}

// Outcome is the persistence decision for one profile
type Outcome struct {
	Action types.DedupAction
	// Candidate is the stored record: the created or updated one, or the
	// existing candidate the incoming profile duplicates.
	Candidate  *db.Candidate
	Similarity *int
	Reason     string
}

// Option configures a Deduplicator
type Option func(*Deduplicator)

// WithWindow sets how many recent candidates the fuzzy check sees
func WithWindow(n int) Option {
	return func(d *Deduplicator) {
		if n > 0 {
			d.window = n
		}
	}
}

// WithPolicy sets the failure policy for the fuzzy check
func WithPolicy(p FailurePolicy) Option {
	return func(d *Deduplicator) { d.policy = p }
}

// Deduplicator upserts candidates. Upserts for the same email are serialized.
type Deduplicator struct {
	store  db.CandidateStore
	client llm.Client
	logger *zap.Logger
	window int
	policy FailurePolicy
	locks  *keyedMutex
}

// New creates a Deduplicator
func New(store db.CandidateStore, client llm.Client, logger *zap.Logger, opts ...Option) *Deduplicator {
	d := &Deduplicator{
		store:  store,
		client: client,
		logger: logging.Component(logger, "dedup"),
		window: DefaultWindow,
		policy: FailOpen,
		locks:  newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithStore returns a Deduplicator that reads and writes through store. It shares
// the receiver's email locks, so upserts stay serialized across the two.
func (d *Deduplicator) WithStore(store db.CandidateStore) *Deduplicator {
	cp := *d
	cp.store = store
	return &cp
}

// Upsert stores profile as a candidate of batchID. An email match merges into the
// stored record; a fuzzy match is reported without writing; otherwise a new record is created.
func (d *Deduplicator) Upsert(ctx context.Context, batchID uuid.UUID, profile *types.CandidateProfile, score float64) (*Outcome, error) {
	email := usableEmail(profile.Personal.Email)
	if email != "" {
		unlock := d.locks.Lock(email)
		defer unlock()

		existing, err := d.store.GetCandidateByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return d.update(ctx, existing, batchID, profile, score)
		}
	}

	match, err := d.findSimilar(ctx, profile)
	if err != nil {
		if d.policy == FailClosed || errors.Is(err, db.ErrPersistence) {
			return nil, err
		}
		logging.Degraded(d.logger, OpCheckDuplicate, err)
	}
	if match != nil {
		d.logger.Info("possible duplicate, skipping creation",
			zap.String("candidate_id", match.Candidate.ID.String()),
			zap.Intp("similarity", match.Similarity))
		return match, nil
	}

	c := &db.Candidate{
		BatchID:      batchID,
		Name:         profile.Personal.Name,
		Email:        types.StringPtr(email),
		Phone:        profile.Personal.Phone,
		Location:     profile.Personal.Location,
		Profile:      *profile,
		OverallScore: score,
	}
	if err := d.store.CreateCandidate(ctx, c); err != nil {
		// Another process created the same email between lookup and insert
		if email != "" && db.IsUniqueViolation(err) {
			existing, getErr := d.store.GetCandidateByEmail(ctx, email)
			if getErr == nil && existing != nil {
				return d.update(ctx, existing, batchID, profile, score)
			}
		}
		return nil, err
	}
	return &Outcome{Action: types.DedupCreated, Candidate: c}, nil
}

func (d *Deduplicator) update(ctx context.Context, existing *db.Candidate, batchID uuid.UUID, profile *types.CandidateProfile, score float64) (*Outcome, error) {
	Merge(existing, profile)
	existing.BatchID = batchID
	existing.OverallScore = score
	if err := d.store.UpdateCandidate(ctx, existing); err != nil {
		return nil, err
	}
	d.logger.Debug("updated existing candidate", zap.String("candidate_id", existing.ID.String()))
	return &Outcome{Action: types.DedupUpdated, Candidate: existing}, nil
}

// Merge applies incoming over the stored candidate. Incoming values win only when
// present: non-nil and non-placeholder personal fields, non-empty lists and summary.
// A fallback profile never replaces the summary or lists of a profile the extraction
// service produced; only its personal fields are merged.
func Merge(stored *db.Candidate, incoming *types.CandidateProfile) {
	p := &stored.Profile
	in := incoming.Personal

	mergeField(&p.Personal.Name, in.Name)
	mergeField(&p.Personal.Email, in.Email)
	mergeField(&p.Personal.Phone, in.Phone)
	mergeField(&p.Personal.Location, in.Location)
	mergeField(&p.Personal.LinkedIn, in.LinkedIn)
	mergeField(&stored.Name, in.Name)
	mergeField(&stored.Phone, in.Phone)
	mergeField(&stored.Location, in.Location)

	if incoming.Fallback && !p.Fallback {
		return
	}
	if strings.TrimSpace(incoming.Summary) != "" {
		p.Summary = incoming.Summary
	}
	if len(incoming.Skills) > 0 {
		p.Skills = append([]string(nil), incoming.Skills...)
	}
	if len(incoming.Experience) > 0 {
		p.Experience = append([]types.Experience(nil), incoming.Experience...)
	}
	if len(incoming.Education) > 0 {
		p.Education = append([]types.Education(nil), incoming.Education...)
	}
	if len(incoming.Certifications) > 0 {
		p.Certifications = append([]types.Certification(nil), incoming.Certifications...)
	}
	p.Fallback = incoming.Fallback
}

func mergeField(dst **string, v *string) {
	if v == nil || parsing.IsPlaceholder(*v) {
		return
	}
	s := strings.TrimSpace(*v)
	*dst = &s
}

func usableEmail(email *string) string {
	if email == nil || parsing.IsPlaceholder(*email) {
		return ""
	}
	return db.NormalizeEmail(*email)
}

type identity struct {
	Index    int     `json:"index,omitempty"`
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
}

// decision is the canonical form of the service's answer
type decision struct {
	IsDuplicate           bool    `json:"is_duplicate"`
	MatchedCandidateIndex *int    `json:"matched_candidate_index"`
	Similarity            *int    `json:"similarity"`
	Reason                *string `json:"reason"`
}

// findSimilar returns a duplicate_detected outcome, or nil when no recent candidate matches
func (d *Deduplicator) findSimilar(ctx context.Context, profile *types.CandidateProfile) (*Outcome, error) {
	recent, err := d.store.ListRecentCandidates(ctx, d.window)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, nil
	}

	prompt, err := buildPrompt(profile, recent)
	if err != nil {
		return nil, err
	}
	responseText, err := d.client.GenerateJSON(ctx, prompt, CallOptions)
	if err != nil {
		return nil, fmt.Errorf("checking duplicates: %w", err)
	}

	dec, err := parseDecision(responseText)
	if err != nil {
		return nil, err
	}
	if !dec.IsDuplicate || dec.MatchedCandidateIndex == nil {
		return nil, nil
	}
	idx := *dec.MatchedCandidateIndex
	if idx < 1 || idx > len(recent) {
		return nil, &parsing.ExtractionError{
			Stage:   OpCheckDuplicate,
			Message: fmt.Sprintf("matched_candidate_index %d outside 1..%d", idx, len(recent)),
		}
	}

	matched := recent[idx-1]
	out := &Outcome{Action: types.DedupDuplicateDetected, Candidate: &matched, Similarity: dec.Similarity}
	if dec.Reason != nil {
		out.Reason = *dec.Reason
	}
	return out, nil
}

func buildPrompt(profile *types.CandidateProfile, recent []db.Candidate) (string, error) {
	incoming, err := json.MarshalIndent(identity{
		Name:     profile.Personal.Name,
		Email:    profile.Personal.Email,
		Phone:    profile.Personal.Phone,
		Location: profile.Personal.Location,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal candidate: %w", err)
	}

	existing := make([]identity, len(recent))
	for i, c := range recent {
		existing[i] = identity{Index: i + 1, Name: c.Name, Email: c.Email, Phone: c.Phone, Location: c.Location}
	}
	existingJSON, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal existing candidates: %w", err)
	}

	return prompts.Format(prompts.MustGet("dedup.json", "check-duplicate"), map[string]string{
		"Candidate": string(incoming),
		"Existing":  string(existingJSON),
	}), nil
}

// parseDecision accepts snake_case or camelCase keys and validates the canonical form
func parseDecision(responseText string) (*decision, error) {
	responseText = llm.CleanJSONBlock(responseText)
	if !gjson.Valid(responseText) {
		return nil, invalidDecision("response is not valid JSON", nil)
	}
	root := gjson.Parse(responseText)
	if !root.IsObject() {
		return nil, invalidDecision("response is not an object", nil)
	}

	dup := firstOf(root, "is_duplicate", "isDuplicate")
	if !dup.IsBool() {
		return nil, invalidDecision("is_duplicate must be a boolean", nil)
	}
	dec := &decision{IsDuplicate: dup.Bool()}
	if v := firstOf(root, "matched_candidate_index", "matchedCandidateIndex"); v.Type == gjson.Number {
		i := int(v.Int())
		dec.MatchedCandidateIndex = &i
	}
	if v := root.Get("similarity"); v.Type == gjson.Number {
		s := int(v.Int())
		dec.Similarity = &s
	}
	if v := root.Get("reason"); v.Type == gjson.String {
		r := v.String()
		dec.Reason = &r
	}

	canonical, err := json.Marshal(dec)
	if err != nil {
		return nil, invalidDecision("failed to re-encode decision", err)
	}
	if err := schemas.Validate(schemas.DedupDecision, string(canonical)); err != nil {
		return nil, invalidDecision("decision does not match schema", err)
	}
	return dec, nil
}

func firstOf(item gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := item.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func invalidDecision(message string, cause error) error {
	return &parsing.ExtractionError{Stage: OpCheckDuplicate, Message: message, Cause: cause}
}
