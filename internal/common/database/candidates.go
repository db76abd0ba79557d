// internal/common/database/candidates.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"recruitment-workers/internal/models"
)

var (
	ErrCandidateNotFound = errors.New("CANDIDATE_NOT_FOUND")
	ErrVersionConflict   = errors.New("VERSION_CONFLICT")
)

// Schema creates the tables used by CandidateRepository.
const Schema = `
CREATE TABLE IF NOT EXISTS candidates (
	id          TEXT PRIMARY KEY,
	stage       TEXT NOT NULL,
	data        JSONB NOT NULL,
	version     BIGINT NOT NULL DEFAULT 1,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS candidates_stage_idx ON candidates (stage);

CREATE TABLE IF NOT EXISTS timeline_events (
	id            TEXT PRIMARY KEY,
	candidate_id  TEXT NOT NULL REFERENCES candidates(id),
	type          TEXT NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL,
	actor         TEXT NOT NULL,
	stage         TEXT NOT NULL,
	metadata      JSONB,
	occurred_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS timeline_events_candidate_idx ON timeline_events (candidate_id, occurred_at);
`

const (
	selectCandidateSQL = `SELECT data, version FROM candidates WHERE id = $1`
	listCandidatesSQL  = `SELECT data, version FROM candidates WHERE ($1::text[] IS NULL OR stage = ANY($1)) ORDER BY created_at, id LIMIT $2`
	insertCandidateSQL = `INSERT INTO candidates (id, stage, data, version, created_at, updated_at) VALUES ($1, $2, $3, 1, $4, $5)`
	updateCandidateSQL = `UPDATE candidates SET stage = $3, data = $4, version = version + 1, updated_at = $5 WHERE id = $1 AND version = $2`
	insertEventSQL     = `INSERT INTO timeline_events (id, candidate_id, type, title, description, actor, stage, metadata, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	selectEventsSQL    = `SELECT id, type, title, description, actor, stage, metadata, occurred_at FROM timeline_events WHERE candidate_id = $1 ORDER BY occurred_at, id`
)

// DefaultListLimit bounds List when the filter sets no limit.
const DefaultListLimit = 1000

// CandidateStore is the persistence surface the workers and the API depend on.
type CandidateStore interface {
	Get(ctx context.Context, id string) (*models.Candidate, error)
	List(ctx context.Context, filter ListFilter) ([]*models.Candidate, error)
	Save(ctx context.Context, c *models.Candidate, expectedVersion int64, events []models.TimelineEvent) error
}

type ListFilter struct {
	Stages []models.Stage
	Limit  int
}

// CandidateRepository stores candidates as JSON documents with an
// optimistic version column. Timeline events go to their own append-only table.
type CandidateRepository struct {
	db *PostgresClient
}

func NewCandidateRepository(db *PostgresClient) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// EnsureSchema creates missing tables.
func (r *CandidateRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// document is the JSON stored in candidates.data. The timeline lives in
// timeline_events and the version in its own column.
func document(c *models.Candidate) ([]byte, error) {
	cp := *c
	cp.TimelineEvents = nil
	return json.Marshal(&cp)
}

func scanCandidate(data []byte, version int64) (*models.Candidate, error) {
	var c models.Candidate
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode candidate: %w", err)
	}
	c.Version = version
	return &c, nil
}

func (r *CandidateRepository) Get(ctx context.Context, id string) (*models.Candidate, error) {
	var (
		data    []byte
		version int64
	)
	err := r.db.QueryRow(ctx, selectCandidateSQL, id).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("candidate %s: %w", id, ErrCandidateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load candidate %s: %w", id, err)
	}
	return scanCandidate(data, version)
}

func (r *CandidateRepository) List(ctx context.Context, filter ListFilter) ([]*models.Candidate, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var stages interface{}
	if len(filter.Stages) > 0 {
		names := make([]string, len(filter.Stages))
		for i, s := range filter.Stages {
			names[i] = string(s)
		}
		stages = pq.Array(names)
	}

	rows, err := r.db.Query(ctx, listCandidatesSQL, stages, limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []*models.Candidate
	for rows.Next() {
		var (
			data    []byte
			version int64
		)
		if err := rows.Scan(&data, &version); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c, err := scanCandidate(data, version)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a new candidate at version 1.
func (r *CandidateRepository) Create(ctx context.Context, c *models.Candidate) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := document(c)
	if err != nil {
		return fmt.Errorf("encode candidate: %w", err)
	}
	if _, err := r.db.Exec(ctx, insertCandidateSQL, c.ID, string(c.Stage), data, c.CreatedAt, c.UpdatedAt); err != nil {
		return fmt.Errorf("insert candidate %s: %w", c.ID, err)
	}
	c.Version = 1
	return nil
}

// Save writes c if its stored version still equals expectedVersion and
// appends events in the same transaction. On success c.Version is bumped.
func (r *CandidateRepository) Save(ctx context.Context, c *models.Candidate, expectedVersion int64, events []models.TimelineEvent) error {
	data, err := document(c)
	if err != nil {
		return fmt.Errorf("encode candidate: %w", err)
	}
	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, updateCandidateSQL, c.ID, expectedVersion, string(c.Stage), data, updatedAt)
		if err != nil {
			return fmt.Errorf("update candidate %s: %w", c.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update candidate %s: %w", c.ID, err)
		}
		if n == 0 {
			return fmt.Errorf("candidate %s at version %d: %w", c.ID, expectedVersion, ErrVersionConflict)
		}

		for _, e := range events {
			meta, err := json.Marshal(e.Metadata)
			if err != nil {
				return fmt.Errorf("encode event %s: %w", e.ID, err)
			}
			if _, err := tx.ExecContext(ctx, insertEventSQL,
				e.ID, c.ID, string(e.Type), e.Title, e.Description, e.Actor, string(e.Stage), meta, e.Timestamp,
			); err != nil {
				return fmt.Errorf("insert event %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.Version = expectedVersion + 1
	return nil
}

// Timeline returns the stored events for a candidate, oldest first.
func (r *CandidateRepository) Timeline(ctx context.Context, candidateID string) ([]models.TimelineEvent, error) {
	rows, err := r.db.Query(ctx, selectEventsSQL, candidateID)
	if err != nil {
		return nil, fmt.Errorf("load timeline %s: %w", candidateID, err)
	}
	defer rows.Close()

	var out []models.TimelineEvent
	for rows.Next() {
		var (
			e          models.TimelineEvent
			typ, stage string
			meta       []byte
		)
		if err := rows.Scan(&e.ID, &typ, &e.Title, &e.Description, &e.Actor, &stage, &meta, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = models.TimelineEventType(typ)
		e.Stage = models.Stage(stage)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode event metadata %s: %w", e.ID, err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
