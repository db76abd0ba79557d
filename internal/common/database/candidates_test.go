// internal/common/database/candidates_test.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitment-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func createTestRepository(t *testing.T) (*CandidateRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCandidateRepository(NewPostgresFromDB(db)), mock
}

func createTestCandidate() *models.Candidate {
	c := models.NewCandidate("cand-1", "Nimal Perera", "Qatar", testNow)
	c.TimelineEvents = []models.TimelineEvent{{ID: "evt-0", Title: "Registered"}}
	return c
}

func candidateJSON(t *testing.T, c *models.Candidate) []byte {
	t.Helper()
	b, err := json.Marshal(c)
	require.NoError(t, err)
	return b
}

// ==========================
// Read Tests
// ==========================

func TestCandidateRepository_Get(t *testing.T) {
	repo, mock := createTestRepository(t)
	c := createTestCandidate()

	mock.ExpectQuery(regexp.QuoteMeta(selectCandidateSQL)).
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"data", "version"}).AddRow(candidateJSON(t, c), 4))

	got, err := repo.Get(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, "Nimal Perera", got.Name)
	assert.Equal(t, models.StageRegistered, got.Stage)
	assert.Equal(t, int64(4), got.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepository_Get_NotFound(t *testing.T) {
	repo, mock := createTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectCandidateSQL)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"data", "version"}))

	_, err := repo.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrCandidateNotFound)
}

func TestCandidateRepository_Get_CorruptDocument(t *testing.T) {
	repo, mock := createTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectCandidateSQL)).
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"data", "version"}).AddRow([]byte("{not json"), 1))

	_, err := repo.Get(context.Background(), "cand-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode candidate")
}

func TestCandidateRepository_List(t *testing.T) {
	tests := []struct {
		name   string
		filter ListFilter
		limit  int
	}{
		{name: "all stages default limit", filter: ListFilter{}, limit: DefaultListLimit},
		{name: "stage filter", filter: ListFilter{Stages: []models.Stage{models.StageApplied}, Limit: 50}, limit: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := createTestRepository(t)
			a := createTestCandidate()
			b := models.NewCandidate("cand-2", "Sunil Silva", "UAE", testNow)

			mock.ExpectQuery(regexp.QuoteMeta(listCandidatesSQL)).
				WithArgs(sqlmock.AnyArg(), tt.limit).
				WillReturnRows(sqlmock.NewRows([]string{"data", "version"}).
					AddRow(candidateJSON(t, a), 1).
					AddRow(candidateJSON(t, b), 2))

			got, err := repo.List(context.Background(), tt.filter)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "cand-2", got[1].ID)
			assert.Equal(t, int64(2), got[1].Version)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Write Tests
// ==========================

func TestCandidateRepository_Save_Success(t *testing.T) {
	repo, mock := createTestRepository(t)
	c := createTestCandidate()
	c.Version = 3
	c.Stage = models.StageApplied
	c.UpdatedAt = testNow.Add(time.Hour)

	event := models.TimelineEvent{
		ID:        "evt-1",
		Type:      models.EventStageTransition,
		Title:     "Moved to Applied",
		Actor:     "staff-1",
		Stage:     models.StageApplied,
		Timestamp: testNow.Add(time.Hour),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateCandidateSQL)).
		WithArgs("cand-1", int64(3), "Applied", sqlmock.AnyArg(), c.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs("evt-1", "cand-1", "StageTransition", "Moved to Applied", "", "staff-1", "Applied", sqlmock.AnyArg(), event.Timestamp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Save(context.Background(), c, 3, []models.TimelineEvent{event})
	require.NoError(t, err)
	assert.Equal(t, int64(4), c.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepository_Save_VersionConflict(t *testing.T) {
	repo, mock := createTestRepository(t)
	c := createTestCandidate()
	c.Version = 2

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateCandidateSQL)).
		WithArgs("cand-1", int64(2), "Registered", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Save(context.Background(), c, 2, nil)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, int64(2), c.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepository_Save_EventInsertRollsBack(t *testing.T) {
	repo, mock := createTestRepository(t)
	c := createTestCandidate()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateCandidateSQL)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := repo.Save(context.Background(), c, 1, []models.TimelineEvent{{ID: "evt-dup"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert event evt-dup")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepository_Create(t *testing.T) {
	repo, mock := createTestRepository(t)
	c := createTestCandidate()

	mock.ExpectExec(regexp.QuoteMeta(insertCandidateSQL)).
		WithArgs("cand-1", "Registered", sqlmock.AnyArg(), testNow, testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, int64(1), c.Version)

	bad := &models.Candidate{Name: "no id", Stage: models.StageRegistered}
	assert.ErrorIs(t, repo.Create(context.Background(), bad), models.ErrMalformedCandidate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocument_OmitsTimeline(t *testing.T) {
	c := createTestCandidate()
	b, err := document(c)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "timelineEvents")
	assert.Len(t, c.TimelineEvents, 1)
}

func TestCandidateRepository_Timeline(t *testing.T) {
	repo, mock := createTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectEventsSQL)).
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "title", "description", "actor", "stage", "metadata", "occurred_at"}).
			AddRow("evt-1", "StageTransition", "Moved", "Registered to Applied", "staff-1", "Applied", []byte(`{"from":"Registered"}`), testNow).
			AddRow("evt-2", "Note", "Called", "", "staff-1", "Applied", nil, testNow.Add(time.Minute)))

	events, err := repo.Timeline(context.Background(), "cand-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventStageTransition, events[0].Type)
	assert.Equal(t, "Registered", events[0].Metadata["from"])
	assert.Nil(t, events[1].Metadata)
}
