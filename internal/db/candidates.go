package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
)

const candidateColumns = `id, batch_id, name, email, phone, location, profile_json, overall_score, rank,
	matched_skills, missing_skills, additional_skills, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (*Candidate, error) {
	var (
		c           Candidate
		name, email sql.NullString
		phone, loc  sql.NullString
		profileJSON []byte
		rank        sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.BatchID, &name, &email, &phone, &loc, &profileJSON, &c.OverallScore, &rank,
		&c.MatchedSkills, &c.MissingSkills, &c.AdditionalSkills, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	c.Name = nullableString(name)
	c.Email = nullableString(email)
	c.Phone = nullableString(phone)
	c.Location = nullableString(loc)
	if rank.Valid {
		r := int(rank.Int64)
		c.Rank = &r
	}

	profile, insights, err := unmarshalProfile(profileJSON)
	if err != nil {
		return nil, err
	}
	c.Profile = profile
	c.Insights = insights
	return &c, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

// NormalizeEmail lowercases and trims an email for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizedEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := NormalizeEmail(*email)
	if e == "" {
		return nil
	}
	return &e
}

// GetCandidateByEmail retrieves a candidate by email, case-insensitively.
// It returns nil without error when no candidate has the email.
func (db *DB) GetCandidateByEmail(ctx context.Context, email string) (*Candidate, error) {
	row := db.sql.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE email = $1`,
		NormalizeEmail(email),
	)
	c, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, persistenceErr("get candidate by email", err)
	}
	return c, nil
}

// ListRecentCandidates returns up to limit candidates, newest first
func (db *DB) ListRecentCandidates(ctx context.Context, limit int) ([]Candidate, error) {
	rows, err := db.sql.QueryContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, persistenceErr("list candidates", err)
	}
	defer rows.Close()

	candidates := []Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, persistenceErr("scan candidate", err)
		}
		candidates = append(candidates, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list candidates", err)
	}
	return candidates, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateCandidate inserts c and sets its ID and timestamps. A second candidate with
// the same email fails with a PersistenceError for which IsUniqueViolation is true.
func (db *DB) CreateCandidate(ctx context.Context, c *Candidate) error {
	return insertCandidate(ctx, db.sql, c)
}

// UpdateCandidate overwrites the stored candidate with c's fields
func (db *DB) UpdateCandidate(ctx context.Context, c *Candidate) error {
	return updateCandidate(ctx, db.sql, c)
}

func insertCandidate(ctx context.Context, q queryer, c *Candidate) error {
	profileJSON, err := marshalProfile(c.Profile, c.Insights)
	if err != nil {
		return persistenceErr("create candidate", err)
	}
	c.Email = normalizedEmail(c.Email)
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	err = q.QueryRowContext(ctx,
		`INSERT INTO candidates (id, batch_id, name, email, phone, location, profile_json, overall_score,
			matched_skills, missing_skills, additional_skills, rank)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at, updated_at`,
		c.ID, c.BatchID, c.Name, c.Email, c.Phone, c.Location, profileJSON, c.OverallScore,
		orEmpty(c.MatchedSkills), orEmpty(c.MissingSkills), orEmpty(c.AdditionalSkills), c.Rank,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return persistenceErr("create candidate", err)
	}
	return nil
}

func updateCandidate(ctx context.Context, q queryer, c *Candidate) error {
	profileJSON, err := marshalProfile(c.Profile, c.Insights)
	if err != nil {
		return persistenceErr("update candidate", err)
	}
	c.Email = normalizedEmail(c.Email)

	err = q.QueryRowContext(ctx,
		`UPDATE candidates
		 SET batch_id = $2, name = $3, email = $4, phone = $5, location = $6, profile_json = $7,
			overall_score = $8, matched_skills = $9, missing_skills = $10, additional_skills = $11,
			rank = $12, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		c.ID, c.BatchID, c.Name, c.Email, c.Phone, c.Location, profileJSON, c.OverallScore,
		orEmpty(c.MatchedSkills), orEmpty(c.MissingSkills), orEmpty(c.AdditionalSkills), c.Rank,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistenceErr("update candidate "+c.ID.String(), ErrNotFound)
		}
		return persistenceErr("update candidate", err)
	}
	return nil
}

func orEmpty(a StringArray) StringArray {
	if a == nil {
		return StringArray{}
	}
	return a
}
