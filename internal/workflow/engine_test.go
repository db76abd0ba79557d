// internal/workflow/engine_test.go
package workflow

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitment-workers/internal/compliance"
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/rules"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

var (
	admin = models.Actor{ID: "u-admin", Name: "Admin User", Role: models.RoleAdmin}
	staff = models.Actor{ID: "u-staff", Name: "Staff User", Role: models.RoleStaff}
)

func ptr(t time.Time) *time.Time { return &t }

func daysFromNow(d int) *time.Time { return ptr(testNow.AddDate(0, 0, d)) }

func createTestEngine(opts ...Option) *Engine {
	countries := rules.DefaultCountryTable()
	ev := compliance.NewEvaluator(countries, compliance.DefaultConfig(),
		compliance.WithClock(func() time.Time { return testNow }))

	var n int64
	base := []Option{WithIDGenerator(func() string {
		return fmt.Sprintf("evt-%d", atomic.AddInt64(&n, 1))
	})}
	return NewEngine(DefaultRequirements(countries), ev, DefaultSLATable(), append(base, opts...)...)
}

func approved(types ...models.DocumentType) []models.CandidateDocument {
	docs := make([]models.CandidateDocument, len(types))
	for i, t := range types {
		docs[i] = models.CandidateDocument{ID: gofakeit.UUID(), Type: t, Status: models.DocStatusApproved}
	}
	return docs
}

// eligibleCandidate is a Qatar applicant at Registered who satisfies every
// compliance rule and the requirements for Verified.
func eligibleCandidate() *models.Candidate {
	c := models.NewCandidate(gofakeit.UUID(), gofakeit.Name(), "Qatar", testNow.AddDate(0, 0, -1))
	c.JobRole = "Driver"
	c.DateOfBirth = ptr(time.Date(1994, 3, 2, 0, 0, 0, 0, time.UTC))
	c.PassportData = &models.PassportData{Number: "N" + gofakeit.DigitN(7), ExpiryDate: daysFromNow(900)}
	c.PCCData = &models.PCCData{IssueDate: daysFromNow(-20)}
	c.MedicalData = &models.MedicalData{Status: models.MedicalCompleted}
	c.Documents = approved(models.DocPassport, models.DocPassportPhotos, models.DocCV)
	return c
}

func addDocument(c *models.Candidate, t models.DocumentType) {
	c.Documents = append(c.Documents, models.CandidateDocument{ID: gofakeit.UUID(), Type: t, Status: models.DocStatusPendingReview})
}

// ==========================
// ValidateTransition Tests
// ==========================

func TestEngine_ValidateTransition_Sequential(t *testing.T) {
	e := createTestEngine()
	c := eligibleCandidate()

	res, err := e.ValidateTransition(c, models.StageApplied)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, ReasonCannotSkip, res.Reason)
	assert.Equal(t, []string{"Cannot skip stages: Verified must be completed before Applied"}, res.Blockers)

	res, err = e.ValidateTransition(c, models.StageVerified)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.NotNil(t, res.Blockers)
	assert.Empty(t, res.Blockers)
}

func TestEngine_ValidateTransition_SameAndBackward(t *testing.T) {
	e := createTestEngine()
	c := eligibleCandidate()
	c.Stage = models.StageApplied

	for _, target := range []models.Stage{models.StageApplied, models.StageRegistered} {
		res, err := e.ValidateTransition(c, target)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "target %s", target)
		assert.Empty(t, res.Blockers)
	}
}

func TestEngine_ValidateTransition_UnmetRequirements(t *testing.T) {
	e := createTestEngine()
	c := models.NewCandidate("cand-new", "New Candidate", "Qatar", testNow)

	res, err := e.ValidateTransition(c, models.StageVerified)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	require.GreaterOrEqual(t, len(res.Blockers), 3)
	assert.Equal(t, []string{
		"Mandatory registration documents uploaded",
		"Passport details recorded",
		"Date of birth recorded",
	}, res.Blockers[:3])
	assert.Contains(t, res.Blockers, "CV not uploaded")
	assert.Equal(t, fmt.Sprintf("%d unmet requirement(s) for Verified", len(res.Blockers)), res.Reason)
}

func TestEngine_ValidateTransition_InputErrors(t *testing.T) {
	e := createTestEngine()

	_, err := e.ValidateTransition(eligibleCandidate(), models.Stage("Interviewed"))
	assert.True(t, errors.Is(err, models.ErrInvalidStage))

	broken := eligibleCandidate()
	broken.Stage = "Somewhere"
	_, err = e.ValidateTransition(broken, models.StageVerified)
	assert.True(t, errors.Is(err, models.ErrMalformedCandidate))

	_, err = e.ValidateTransition(nil, models.StageVerified)
	assert.True(t, errors.Is(err, models.ErrMalformedCandidate))
}

func TestEngine_CriticalFlagBlocksAndResolutionUnblocks(t *testing.T) {
	e := createTestEngine()
	c := eligibleCandidate()
	c.ComplianceFlags = []models.ComplianceFlag{
		{ID: "f1", Severity: models.SeverityCritical, Reason: "Employer blacklisted", CreatedAt: testNow},
	}

	res, err := e.ValidateTransition(c, models.StageVerified)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, []string{"Critical compliance flag: Employer blacklisted"}, res.Blockers)

	c.ComplianceFlags[0].Resolve(admin.ID, "cleared", testNow)
	res, err = e.ValidateTransition(c, models.StageVerified)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestEngine_BlockersGrowWithMissingFacts(t *testing.T) {
	e := createTestEngine()
	c := eligibleCandidate()
	c.Stage = models.StageWorkPermitReceived

	baseline, err := e.ValidateTransition(c, models.StageEmbassyApplied)
	require.NoError(t, err)
	require.True(t, baseline.Allowed)

	c.PCCData = nil
	withoutPCC, err := e.ValidateTransition(c, models.StageEmbassyApplied)
	require.NoError(t, err)

	c.MedicalData = nil
	withoutBoth, err := e.ValidateTransition(c, models.StageEmbassyApplied)
	require.NoError(t, err)

	assert.Subset(t, withoutBoth.Blockers, withoutPCC.Blockers)
	assert.Greater(t, len(withoutBoth.Blockers), len(withoutPCC.Blockers))
	assert.Contains(t, withoutPCC.Blockers, "Police clearance recorded")
	assert.Contains(t, withoutBoth.Blockers, "Medical clearance obtained")
}

// ==========================
// PerformTransition Tests
// ==========================

func TestEngine_PerformTransition_Success(t *testing.T) {
	e := createTestEngine()
	c := eligibleCandidate()

	res, err := e.PerformTransition(c, models.StageVerified, staff)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotNil(t, res.Event)

	assert.Equal(t, models.StageRegistered, res.FromStage)
	assert.Equal(t, models.StageVerified, res.ToStage)
	assert.Equal(t, models.StageVerified, c.Stage)
	assert.Equal(t, testNow, c.StageEnteredAt)
	assert.Equal(t, models.StageStatusPending, c.StageStatus)

	require.Len(t, c.TimelineEvents, 1)
	ev := c.TimelineEvents[0]
	assert.Equal(t, *res.Event, ev)
	assert.Equal(t, models.EventStageTransition, ev.Type)
	assert.Equal(t, "Moved to Verified", ev.Title)
	assert.Equal(t, "Staff User", ev.Actor)
	assert.Equal(t, "Registered", ev.Metadata["fromStage"])
	assert.Equal(t, "Verified", ev.Metadata["toStage"])
}

func TestEngine_PerformTransition_RejectionLeavesCandidateUntouched(t *testing.T) {
	e := createTestEngine()
	c := eligibleCandidate()
	c.PassportData = nil
	before := c.Clone()

	res, err := e.PerformTransition(c, models.StageVerified, staff)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Nil(t, res.Event)
	assert.Contains(t, res.Error, "Passport details recorded")
	assert.Equal(t, before, c)
}

func TestEngine_PerformTransition_SameStageIsNoOp(t *testing.T) {
	e := createTestEngine()
	c := eligibleCandidate()

	res, err := e.PerformTransition(c, models.StageRegistered, staff)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Nil(t, res.Event)
	assert.Empty(t, c.TimelineEvents)
}

func TestEngine_PerformTransition_BackwardNeedsRollback(t *testing.T) {
	e := createTestEngine()
	c := eligibleCandidate()
	c.Stage = models.StageApplied

	res, err := e.PerformTransition(c, models.StageVerified, admin)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "requires a rollback")
	assert.Equal(t, models.StageApplied, c.Stage)
}

// ==========================
// Override Tests
// ==========================

func TestEngine_ForceTransition(t *testing.T) {
	t.Run("admin bypasses blockers", func(t *testing.T) {
		e := createTestEngine()
		c := eligibleCandidate()

		res, err := e.ForceTransition(c, models.StageEmbassyApplied, admin, "employer escalation")
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Equal(t, models.StageEmbassyApplied, c.Stage)

		ev := res.Event
		require.NotNil(t, ev)
		assert.Equal(t, models.EventManualOverride, ev.Type)
		assert.Equal(t, "force", ev.Metadata["action"])
		assert.Equal(t, "employer escalation", ev.Metadata["reason"])
		assert.Equal(t, []string{"Cannot skip stages: Verified must be completed before Embassy Applied"}, ev.Metadata["bypassedBlockers"])
	})

	t.Run("staff is refused", func(t *testing.T) {
		e := createTestEngine()
		c := eligibleCandidate()
		before := c.Clone()

		res, err := e.ForceTransition(c, models.StageEmbassyApplied, staff, "please")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, before, c)
	})

	t.Run("configured elevated roles", func(t *testing.T) {
		e := createTestEngine(WithElevatedRoles(models.RoleManager))
		manager := models.Actor{ID: "u-mgr", Role: models.RoleManager}
		assert.True(t, e.IsElevated(manager))
		assert.False(t, e.IsElevated(admin))
	})

	t.Run("reason is required", func(t *testing.T) {
		e := createTestEngine()
		c := eligibleCandidate()
		before := c.Clone()

		_, err := e.ForceTransition(c, models.StageEmbassyApplied, admin, "  ")
		assert.ErrorIs(t, err, ErrReasonRequired)
		assert.Equal(t, before, c)
	})

	t.Run("role case is ignored", func(t *testing.T) {
		e := createTestEngine(WithElevatedRoles("Admin", "Manager"))
		boss := models.Actor{ID: "u-boss", Name: "Boss", Role: "ADMIN"}
		assert.True(t, e.IsElevated(boss))

		c := eligibleCandidate()
		res, err := e.ForceTransition(c, models.StageEmbassyApplied, boss, "embassy backlog")
		require.NoError(t, err)
		assert.True(t, res.Success, res.Error)
	})
}

func TestEngine_Rollback(t *testing.T) {
	tests := []struct {
		name        string
		actor       models.Actor
		target      models.Stage
		reason      string
		wantErr     error
		wantSuccess bool
	}{
		{name: "admin rolls back", actor: admin, target: models.StageRegistered, reason: "documents re-verified", wantSuccess: true},
		{name: "reason required", actor: admin, target: models.StageRegistered, reason: "  ", wantErr: ErrReasonRequired},
		{name: "staff refused", actor: staff, target: models.StageRegistered, reason: "mistake"},
		{name: "target must be earlier", actor: admin, target: models.StageOfferReceived, reason: "mistake"},
		{name: "same stage refused", actor: admin, target: models.StageApplied, reason: "mistake"},
		{name: "unknown target", actor: admin, target: "Limbo", reason: "mistake", wantErr: models.ErrInvalidStage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := createTestEngine()
			c := eligibleCandidate()
			c.Stage = models.StageApplied
			before := c.Clone()

			res, err := e.Rollback(c, tt.target, tt.actor, tt.reason)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Equal(t, before, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, res.Success)
			if !tt.wantSuccess {
				assert.Equal(t, before, c)
				return
			}
			assert.Equal(t, tt.target, c.Stage)
			require.Len(t, c.TimelineEvents, 1)
			assert.Equal(t, "rollback", c.TimelineEvents[0].Metadata["action"])
			assert.Equal(t, models.EventManualOverride, c.TimelineEvents[0].Type)
		})
	}
}

// ==========================
// Scenario Tests
// ==========================

func TestEngine_FullJourney(t *testing.T) {
	gofakeit.Seed(42)
	e := createTestEngine()
	c := eligibleCandidate()

	steps := []struct {
		target  models.Stage
		prepare func(c *models.Candidate)
	}{
		{target: models.StageVerified},
		{target: models.StageApplied},
		{target: models.StageOfferReceived, prepare: func(c *models.Candidate) {
			c.StageData.EmployerID = gofakeit.UUID()
			addDocument(c, models.DocOfferLetter)
		}},
		{target: models.StageWorkPermitReceived, prepare: func(c *models.Candidate) {
			addDocument(c, models.DocWorkPermit)
		}},
		{target: models.StageEmbassyApplied},
		{target: models.StageVisaReceived, prepare: func(c *models.Candidate) {
			addDocument(c, models.DocVisaCopy)
		}},
		{target: models.StageSLBFERegistration, prepare: func(c *models.Candidate) {
			c.StageData.SLBFERegistrationNo = "SLBFE-" + gofakeit.DigitN(6)
		}},
		{target: models.StageTicketIssued, prepare: func(c *models.Candidate) {
			c.StageData.PaymentStatus = models.PaymentPaid
		}},
		{target: models.StageDeparted, prepare: func(c *models.Candidate) {
			c.StageData.TicketNumber = "UL" + gofakeit.DigitN(4)
			c.StageData.FlightDate = daysFromNow(2)
		}},
	}

	for _, step := range steps {
		// The requirement is missing until prepare runs.
		if step.prepare != nil {
			res, err := e.PerformTransition(c, step.target, staff)
			require.NoError(t, err)
			require.False(t, res.Success, "expected %s to be blocked before preparation", step.target)
			step.prepare(c)
		}
		res, err := e.PerformTransition(c, step.target, staff)
		require.NoError(t, err)
		require.True(t, res.Success, "transition to %s: %s", step.target, res.Error)
	}

	assert.Equal(t, models.StageDeparted, c.Stage)
	assert.Len(t, c.TimelineEvents, len(steps))
	for i, ev := range c.TimelineEvents {
		assert.Equal(t, fmt.Sprintf("evt-%d", i+1), ev.ID)
	}

	_, ok := c.Stage.Next()
	assert.False(t, ok)
}

// ==========================
// SLA Tests
// ==========================

func TestComputeSLA_Boundaries(t *testing.T) {
	limits := DefaultSLATable()

	tests := []struct {
		name        string
		stage       models.Stage
		entered     time.Time
		wantDays    int
		wantOverdue bool
		wantLevel   SLALevel
	}{
		{name: "just entered", stage: models.StageRegistered, entered: testNow, wantDays: 0, wantLevel: SLAOnTime},
		{name: "entered in future", stage: models.StageRegistered, entered: testNow.Add(time.Hour), wantDays: 0, wantLevel: SLAOnTime},
		{name: "partial day counts", stage: models.StageRegistered, entered: testNow.Add(-time.Hour), wantDays: 1, wantLevel: SLAOnTime},
		{name: "exactly at limit", stage: models.StageRegistered, entered: testNow.Add(-3 * day), wantDays: 3, wantLevel: SLAWarning},
		{name: "one second past limit", stage: models.StageRegistered, entered: testNow.Add(-3*day - time.Second), wantDays: 4, wantOverdue: true, wantLevel: SLACritical},
		{name: "below warning ratio", stage: models.StageApplied, entered: testNow.Add(-11 * day), wantDays: 11, wantLevel: SLAOnTime},
		{name: "at warning ratio", stage: models.StageApplied, entered: testNow.Add(-12 * day), wantDays: 12, wantLevel: SLAWarning},
		{name: "departed has no limit", stage: models.StageDeparted, entered: testNow.Add(-400 * day), wantDays: 400, wantLevel: SLAOnTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ComputeSLA(tt.stage, tt.entered, testNow, limits)
			assert.Equal(t, tt.wantDays, r.DaysInStage)
			assert.Equal(t, tt.wantOverdue, r.Overdue)
			assert.Equal(t, tt.wantLevel, r.Level)
		})
	}
}

func TestEngine_SLAStatus(t *testing.T) {
	e := createTestEngine()
	c := eligibleCandidate()
	c.StageEnteredAt = testNow.Add(-4 * day)

	r, err := e.SLAStatus(c)
	require.NoError(t, err)
	assert.Equal(t, c.ID, r.CandidateID)
	assert.True(t, r.Overdue)
	assert.Equal(t, 3, r.LimitDays)
	assert.Equal(t, -1, r.DaysRemaining)

	_, err = e.SLAStatus(&models.Candidate{})
	assert.True(t, errors.Is(err, models.ErrMalformedCandidate))
}

func TestSLATable_Merge(t *testing.T) {
	base := DefaultSLATable()
	merged := base.Merge(map[string]int{"registration": 5, "Visa Received": 10, "unknown": 99})

	assert.Equal(t, 5, merged[models.StageRegistered])
	assert.Equal(t, 10, merged[models.StageVisaReceived])
	assert.Equal(t, 3, base[models.StageRegistered], "merge must not modify the receiver")
	assert.Len(t, merged, len(base))
}
