// internal/workers/workflow/perform-stage-transition/handler_test.go
package performstagetransition

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitment-workers/internal/common/database"
	"recruitment-workers/internal/common/metrics"
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/workers/workertest"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestHandler(t *testing.T, candidates ...*models.Candidate) (*Handler, *database.MemoryStore) {
	store := database.NewMemoryStore(candidates...)
	h := NewHandler(LoadConfig(), workertest.Mutator(t, store), workertest.Engine(), workertest.Runtime(t, TaskType))
	return h, store
}

func createInput(id, target string, actor models.Actor) *Input {
	return &Input{CandidateID: id, TargetStage: target, Actor: actor}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Applied(t *testing.T) {
	c := workertest.EligibleCandidate("c-move")
	h, store := createTestHandler(t, c)
	before := testutil.ToFloat64(metrics.StageTransitions.WithLabelValues("Registered", "Verified", metrics.OutcomeApplied))

	out, err := h.Execute(context.Background(), createInput(c.ID, "Verified", workertest.Staff))
	require.NoError(t, err)

	assert.True(t, out.Success)
	require.NotNil(t, out.Event)
	assert.Equal(t, models.EventStageTransition, out.Event.Type)
	assert.Equal(t, "Registered", out.FromStage)
	assert.Equal(t, "Verified", out.ToStage)
	assert.Equal(t, int64(2), out.Version)
	assert.Empty(t, out.Blockers)

	stored, err := store.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageVerified, stored.Stage)
	assert.Equal(t, workertest.Now, stored.StageEnteredAt)

	timeline, err := store.Timeline(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Event.ID, timeline[len(timeline)-1].ID)

	after := testutil.ToFloat64(metrics.StageTransitions.WithLabelValues("Registered", "Verified", metrics.OutcomeApplied))
	assert.Equal(t, before+1, after)
}

func TestHandler_Execute_NotPersisted(t *testing.T) {
	tests := []struct {
		name        string
		candidate   *models.Candidate
		target      string
		wantSuccess bool
		wantError   string
		wantBlocked bool
	}{
		{
			name:        "unmet requirements",
			candidate:   workertest.Unprepared("c-new"),
			target:      "Verified",
			wantBlocked: true,
		},
		{
			name:        "skipping ahead",
			candidate:   workertest.EligibleCandidate("c-skip"),
			target:      "Applied",
			wantBlocked: true,
		},
		{
			name:        "same stage is a no-op",
			candidate:   workertest.EligibleCandidate("c-same"),
			target:      "Registered",
			wantSuccess: true,
		},
		{
			name: "backward needs rollback",
			candidate: func() *models.Candidate {
				c := workertest.EligibleCandidate("c-back")
				c.Stage = models.StageApplied
				return c
			}(),
			target:    "Verified",
			wantError: "requires a rollback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, store := createTestHandler(t, tt.candidate)
			stage := tt.candidate.Stage

			out, err := h.Execute(context.Background(), createInput(tt.candidate.ID, tt.target, workertest.Staff))
			require.NoError(t, err)

			assert.Equal(t, tt.wantSuccess, out.Success)
			assert.Nil(t, out.Event)
			assert.Equal(t, int64(1), out.Version)
			if tt.wantError != "" {
				assert.Contains(t, out.Error, tt.wantError)
			}
			if tt.wantBlocked {
				assert.NotEmpty(t, out.Blockers)
			}

			stored, err := store.Get(context.Background(), tt.candidate.ID)
			require.NoError(t, err)
			assert.Equal(t, stage, stored.Stage)
			assert.Equal(t, int64(1), stored.Version)
		})
	}
}

func TestInput_ActorRoleNormalised(t *testing.T) {
	in := createInput("c-1", "Verified", models.Actor{ID: "u-1", Role: " Admin "})
	assert.Equal(t, models.RoleAdmin, in.actor().Role)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	h, _ := createTestHandler(t, workertest.EligibleCandidate("c-1"))

	_, err := h.Execute(context.Background(), createInput("c-1", "Interviewed", workertest.Staff))
	assert.ErrorIs(t, err, models.ErrInvalidStage)

	_, err = h.Execute(context.Background(), createInput("ghost", "Verified", workertest.Staff))
	assert.ErrorIs(t, err, database.ErrCandidateNotFound)
}
