// internal/compliance/evaluator_test.go
package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitment-workers/internal/models"
	"recruitment-workers/internal/rules"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func daysFromNow(d int) *time.Time {
	return ptr(testNow.AddDate(0, 0, d))
}

func createTestEvaluator() *Evaluator {
	return NewEvaluator(rules.DefaultCountryTable(), DefaultConfig(), WithClock(func() time.Time { return testNow }))
}

func approved(types ...models.DocumentType) []models.CandidateDocument {
	docs := make([]models.CandidateDocument, len(types))
	for i, t := range types {
		docs[i] = models.CandidateDocument{ID: "doc-" + slug(string(t)), Type: t, Status: models.DocStatusApproved}
	}
	return docs
}

// compliantCandidate passes every Qatar rule.
func compliantCandidate() *models.Candidate {
	c := models.NewCandidate("cand-1", "Nimal Perera", "Qatar", testNow.AddDate(0, 0, -10))
	c.JobRole = "Driver"
	c.DateOfBirth = ptr(time.Date(1996, 6, 15, 0, 0, 0, 0, time.UTC))
	c.PassportData = &models.PassportData{Number: "N1234567", IssueDate: daysFromNow(-365), ExpiryDate: daysFromNow(730)}
	c.PCCData = &models.PCCData{IssueDate: daysFromNow(-30)}
	c.MedicalData = &models.MedicalData{Status: models.MedicalCompleted}
	c.Documents = approved(models.DocPassport, models.DocPassportPhotos, models.DocCV)
	return c
}

func findResult(t *testing.T, r Report, ruleID string) RuleResult {
	t.Helper()
	for _, res := range r.Results {
		if res.RuleID == ruleID {
			return res
		}
	}
	t.Fatalf("rule %s not found in report", ruleID)
	return RuleResult{}
}

func issueIDs(r Report) []string {
	var ids []string
	for _, i := range r.Issues() {
		ids = append(ids, i.ID)
	}
	return ids
}

// ==========================
// Evaluate Tests
// ==========================

func TestEvaluator_Evaluate_FullyCompliant(t *testing.T) {
	report := createTestEvaluator().Evaluate(compliantCandidate())

	assert.Equal(t, "cand-1", report.CandidateID)
	assert.Equal(t, "Qatar", report.Country)
	assert.Equal(t, 100, report.OverallScore)
	assert.True(t, report.IsProcessable)
	assert.Zero(t, report.CriticalIssuesCount)
	assert.Zero(t, report.WarningIssuesCount)
	assert.Empty(t, report.Issues())
	assert.Equal(t, testNow, report.EvaluatedAt)
	assert.Equal(t, DomainScore{Score: 300, MaxScore: 300}, report.DomainBreakdown[DomainDocuments])
	assert.Len(t, report.Results, 8)
}

func TestEvaluator_Evaluate_DoesNotMutate(t *testing.T) {
	c := compliantCandidate()
	c.PassportData = nil
	before := c.Clone()

	createTestEvaluator().Evaluate(c)
	assert.Equal(t, before, c)
}

func TestEvaluator_Passport(t *testing.T) {
	tests := []struct {
		name      string
		country   string
		passport  *models.PassportData
		wantIssue string
		wantScore int
		wantBlock models.Stage
	}{
		{name: "missing", passport: nil, wantIssue: "passport-missing", wantScore: 0, wantBlock: models.StageEmbassyApplied},
		{name: "no number", passport: &models.PassportData{ExpiryDate: daysFromNow(900)}, wantIssue: "passport-missing"},
		{name: "no expiry", passport: &models.PassportData{Number: "N1"}, wantIssue: "passport-invalid"},
		{name: "expiry before issue", passport: &models.PassportData{Number: "N1", IssueDate: daysFromNow(10), ExpiryDate: daysFromNow(5)}, wantIssue: "passport-invalid"},
		{name: "expired yesterday", passport: &models.PassportData{Number: "N1", ExpiryDate: daysFromNow(-1)}, wantIssue: "passport-expired", wantBlock: models.StageSLBFERegistration},
		{name: "expires today is expiring", passport: &models.PassportData{Number: "N1", ExpiryDate: daysFromNow(0)}, wantIssue: "passport-expiring", wantScore: 50},
		{name: "exactly at warning window", passport: &models.PassportData{Number: "N1", ExpiryDate: daysFromNow(180)}, wantIssue: "passport-expiring", wantScore: 50},
		{name: "one day past warning window", passport: &models.PassportData{Number: "N1", ExpiryDate: daysFromNow(181)}, wantScore: 100},
		{name: "japan widens window to twelve months", country: "Japan", passport: &models.PassportData{Number: "N1", ExpiryDate: daysFromNow(300)}, wantIssue: "passport-expiring", wantScore: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := compliantCandidate()
			if tt.country != "" {
				c.TargetCountry = tt.country
			}
			c.PassportData = tt.passport

			res := findResult(t, createTestEvaluator().Evaluate(c), "passport-validity")
			assert.Equal(t, tt.wantScore, res.ScoreImpact)
			if tt.wantIssue == "" {
				assert.True(t, res.Passed)
				assert.Nil(t, res.Issue)
				return
			}
			require.NotNil(t, res.Issue)
			assert.Equal(t, tt.wantIssue, res.Issue.ID)
			if tt.wantBlock != "" {
				assert.True(t, res.Issue.Blocks(tt.wantBlock))
			}
		})
	}
}

func TestEvaluator_PCC(t *testing.T) {
	tests := []struct {
		name      string
		country   string
		pcc       *models.PCCData
		wantIssue string
		wantScore int
	}{
		{name: "missing", pcc: nil, wantIssue: "pcc-missing"},
		{name: "issued in future", pcc: &models.PCCData{IssueDate: daysFromNow(3)}, wantIssue: "pcc-invalid"},
		{name: "fresh", pcc: &models.PCCData{IssueDate: daysFromNow(-149)}, wantScore: 100},
		{name: "at warning threshold", pcc: &models.PCCData{IssueDate: daysFromNow(-150)}, wantIssue: "pcc-expiring", wantScore: 50},
		{name: "at max age", pcc: &models.PCCData{IssueDate: daysFromNow(-180)}, wantIssue: "pcc-expiring", wantScore: 50},
		{name: "past max age", pcc: &models.PCCData{IssueDate: daysFromNow(-181)}, wantIssue: "pcc-expired"},
		{name: "uae shorter validity", country: "United Arab Emirates", pcc: &models.PCCData{IssueDate: daysFromNow(-91)}, wantIssue: "pcc-expired"},
		{name: "uae scaled warning", country: "United Arab Emirates", pcc: &models.PCCData{IssueDate: daysFromNow(-75)}, wantIssue: "pcc-expiring", wantScore: 50},
		{name: "not required for oman", country: "Oman", pcc: nil, wantScore: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := compliantCandidate()
			if tt.country != "" {
				c.TargetCountry = tt.country
			}
			c.PCCData = tt.pcc

			res := findResult(t, createTestEvaluator().Evaluate(c), "pcc-validity")
			assert.Equal(t, tt.wantScore, res.ScoreImpact)
			if tt.wantIssue == "" {
				assert.Nil(t, res.Issue)
				return
			}
			require.NotNil(t, res.Issue)
			assert.Equal(t, tt.wantIssue, res.Issue.ID)
		})
	}
}

func TestEvaluator_Medical(t *testing.T) {
	tests := []struct {
		name       string
		medical    *models.MedicalData
		wantIssue  string
		wantScore  int
		wantPassed bool
	}{
		{name: "completed", medical: &models.MedicalData{Status: models.MedicalCompleted}, wantScore: 100, wantPassed: true},
		{name: "scheduled ahead", medical: &models.MedicalData{Status: models.MedicalScheduled, ScheduledDate: daysFromNow(4)}, wantScore: 75, wantPassed: true},
		{name: "scheduled today", medical: &models.MedicalData{Status: models.MedicalScheduled, ScheduledDate: daysFromNow(0)}, wantScore: 75, wantPassed: true},
		{name: "scheduled and overdue", medical: &models.MedicalData{Status: models.MedicalScheduled, ScheduledDate: daysFromNow(-2)}, wantIssue: "medical-overdue", wantScore: 20},
		{name: "failed", medical: &models.MedicalData{Status: models.MedicalFailed}, wantIssue: "medical-failed"},
		{name: "not started", medical: nil, wantIssue: "medical-not-started", wantScore: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := compliantCandidate()
			c.MedicalData = tt.medical

			res := findResult(t, createTestEvaluator().Evaluate(c), "medical-clearance")
			assert.Equal(t, tt.wantScore, res.ScoreImpact)
			assert.Equal(t, tt.wantPassed, res.Passed)
			if tt.wantIssue == "" {
				assert.Nil(t, res.Issue)
				return
			}
			require.NotNil(t, res.Issue)
			assert.Equal(t, tt.wantIssue, res.Issue.ID)
		})
	}
}

func TestEvaluator_Age(t *testing.T) {
	tests := []struct {
		name      string
		country   string
		role      string
		dob       *time.Time
		wantIssue string
		wantMsg   string
	}{
		{name: "in range", dob: ptr(time.Date(1996, 6, 15, 0, 0, 0, 0, time.UTC))},
		{name: "missing dob", dob: nil, wantIssue: "age-missing-dob"},
		{name: "turns minimum today", dob: ptr(time.Date(2005, 6, 15, 0, 0, 0, 0, time.UTC))},
		{name: "one day short of minimum", dob: ptr(time.Date(2005, 6, 16, 0, 0, 0, 0, time.UTC)), wantIssue: "age-too-young", wantMsg: "Candidate is too young: 20 (minimum 21 for Qatar)"},
		{name: "role override applies", country: "Saudi Arabia", role: "housemaid", dob: ptr(time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC)), wantIssue: "age-too-old"},
		{name: "country default for other role", country: "Saudi Arabia", role: "mason", dob: ptr(time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := compliantCandidate()
			if tt.country != "" {
				c.TargetCountry = tt.country
				c.Documents = approved(models.DocPassport, models.DocPassportPhotos, models.DocFullPhoto)
			}
			if tt.role != "" {
				c.JobRole = tt.role
			}
			c.DateOfBirth = tt.dob

			res := findResult(t, createTestEvaluator().Evaluate(c), "age-eligibility")
			if tt.wantIssue == "" {
				assert.True(t, res.Passed)
				assert.Nil(t, res.Issue)
				return
			}
			require.NotNil(t, res.Issue)
			assert.Equal(t, tt.wantIssue, res.Issue.ID)
			assert.Equal(t, models.SeverityCritical, res.Issue.Severity)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, res.Issue.Message)
			}
		})
	}
}

func TestEvaluator_Documents(t *testing.T) {
	c := compliantCandidate()
	c.Documents = []models.CandidateDocument{
		{Type: models.DocPassport, Status: models.DocStatusApproved},
		{Type: models.DocPassportPhotos, Status: models.DocStatusPendingReview},
		{Type: models.DocCV, Status: models.DocStatusMissing},
	}

	report := createTestEvaluator().Evaluate(c)

	photos := findResult(t, report, "document-passport-photos")
	require.NotNil(t, photos.Issue)
	assert.Equal(t, "document-unapproved-passport-photos", photos.Issue.ID)
	assert.Equal(t, models.SeverityWarning, photos.Issue.Severity)
	assert.Equal(t, 50, photos.ScoreImpact)

	cv := findResult(t, report, "document-cv")
	require.NotNil(t, cv.Issue)
	assert.Equal(t, "document-missing-cv", cv.Issue.ID)
	assert.Equal(t, "CV not uploaded", cv.Issue.Message)
	assert.False(t, cv.Issue.Blocks(models.StageRegistered))
	assert.True(t, cv.Issue.Blocks(models.StageVerified))
	assert.True(t, cv.Issue.Blocks(models.StageDeparted))

	assert.Equal(t, DomainScore{Score: 150, MaxScore: 300}, report.DomainBreakdown[DomainDocuments])
	assert.False(t, report.IsProcessable)
}

type fixedDocuments []models.CandidateDocument

func (f fixedDocuments) Documents(*models.Candidate) []models.CandidateDocument { return f }

func TestEvaluator_WithDocumentSource(t *testing.T) {
	c := compliantCandidate()
	c.Documents = nil

	ev := NewEvaluator(rules.DefaultCountryTable(), DefaultConfig(),
		WithClock(func() time.Time { return testNow }),
		WithDocumentSource(fixedDocuments(approved(models.DocPassport, models.DocPassportPhotos, models.DocCV))),
	)
	assert.True(t, ev.Evaluate(c).IsProcessable)
}

func TestEvaluator_Flags(t *testing.T) {
	c := compliantCandidate()
	c.ComplianceFlags = []models.ComplianceFlag{
		{ID: "f1", Severity: models.SeverityCritical, Reason: "Forged reference letter"},
		{ID: "f2", Severity: models.SeverityWarning, Reason: "Address mismatch"},
		{ID: "f3", Severity: models.SeverityCritical, Reason: "Old issue", IsResolved: true},
	}

	report := createTestEvaluator().Evaluate(c)
	assert.ElementsMatch(t, []string{"flag-f1", "flag-f2"}, issueIDs(report))

	critical := findResult(t, report, "flag-f1")
	assert.Equal(t, "Critical compliance flag: Forged reference letter", critical.Issue.Message)
	for _, s := range models.AllStages() {
		assert.True(t, critical.Issue.Blocks(s), "critical flag must block %s", s)
	}

	warning := findResult(t, report, "flag-f2")
	assert.Equal(t, 50, warning.ScoreImpact)
	assert.Empty(t, warning.Issue.BlockingStages)

	assert.Equal(t, 1, report.CriticalIssuesCount)
	assert.Equal(t, 1, report.WarningIssuesCount)
	assert.False(t, report.IsProcessable)

	c.ComplianceFlags[0].Resolve("admin-1", "verified with employer", testNow)
	c.ComplianceFlags[1].Resolve("admin-1", "", testNow)
	report = createTestEvaluator().Evaluate(c)
	assert.True(t, report.IsProcessable)
	findResult(t, report, "flags-clear")
}

// ==========================
// Scoring Tests
// ==========================

func TestEvaluator_OverallScoreRounding(t *testing.T) {
	c := compliantCandidate()
	c.Documents[1].Status = models.DocStatusPendingReview

	report := createTestEvaluator().Evaluate(c)

	// 7 results at 100 and one at 50 over 8 results.
	assert.Equal(t, 94, report.OverallScore)
	assert.True(t, report.IsProcessable, "warnings alone do not block processing")
	assert.Equal(t, 1, report.WarningIssuesCount)
}

func TestReport_BlockingIssues(t *testing.T) {
	c := compliantCandidate()
	c.PassportData = nil
	c.ComplianceFlags = []models.ComplianceFlag{{ID: "f1", Severity: models.SeverityCritical, Reason: "hold"}}

	report := createTestEvaluator().Evaluate(c)

	all := report.BlockingIssues(models.StageEmbassyApplied)
	assert.Len(t, all, 2)

	withoutFlags := report.BlockingIssues(models.StageEmbassyApplied, DomainFlags)
	require.Len(t, withoutFlags, 1)
	assert.Equal(t, "passport-missing", withoutFlags[0].ID)

	assert.Empty(t, report.BlockingIssues(models.StageOfferReceived, DomainFlags))
}

func TestEvaluator_DerivedStatuses(t *testing.T) {
	ev := createTestEvaluator()
	c := compliantCandidate()
	assert.Equal(t, StatusValid, ev.PassportStatus(c))
	assert.Equal(t, StatusValid, ev.PCCStatus(c))

	c.PassportData.ExpiryDate = daysFromNow(-5)
	c.PCCData.IssueDate = daysFromNow(-400)
	assert.Equal(t, StatusExpired, ev.PassportStatus(c))
	assert.Equal(t, StatusExpired, ev.PCCStatus(c))

	assert.Equal(t, 360, ev.PassportWarningDays(rules.DefaultCountryTable().Lookup("Japan")))
	assert.Equal(t, 180, ev.PassportWarningDays(rules.DefaultCountryTable().Lookup("Qatar")))
}

func TestAgeAt(t *testing.T) {
	dob := time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 25, AgeAt(dob, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 26, AgeAt(dob, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{PCCMaxAgeDays: 90}.withDefaults()
	assert.Equal(t, 180, cfg.PassportWarningDays)
	assert.Equal(t, 90, cfg.PCCMaxAgeDays)
	assert.Equal(t, 150, cfg.PCCWarningDays)
}
