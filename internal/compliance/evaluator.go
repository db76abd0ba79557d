// internal/compliance/evaluator.go
package compliance

import (
	"fmt"
	"strings"
	"time"

	"recruitment-workers/internal/models"
	"recruitment-workers/internal/rules"
)

// Config holds the evaluator thresholds. Zero values fall back to the defaults.
type Config struct {
	PassportWarningDays int `mapstructure:"passport_warning_days" json:"passportWarningDays"`
	PCCMaxAgeDays       int `mapstructure:"pcc_max_age_days" json:"pccMaxAgeDays"`
	PCCWarningDays      int `mapstructure:"pcc_warning_days" json:"pccWarningDays"`
}

func DefaultConfig() Config {
	return Config{
		PassportWarningDays: 180,
		PCCMaxAgeDays:       180,
		PCCWarningDays:      150,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PassportWarningDays <= 0 {
		c.PassportWarningDays = d.PassportWarningDays
	}
	if c.PCCMaxAgeDays <= 0 {
		c.PCCMaxAgeDays = d.PCCMaxAgeDays
	}
	if c.PCCWarningDays <= 0 {
		c.PCCWarningDays = d.PCCWarningDays
	}
	return c
}

// DocumentSource supplies the documents considered for a candidate.
type DocumentSource interface {
	Documents(c *models.Candidate) []models.CandidateDocument
}

type candidateDocuments struct{}

func (candidateDocuments) Documents(c *models.Candidate) []models.CandidateDocument {
	return c.Documents
}

type Evaluator struct {
	countries rules.CountryLookup
	config    Config
	docs      DocumentSource
	now       func() time.Time
}

type Option func(*Evaluator)

func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

func WithDocumentSource(src DocumentSource) Option {
	return func(e *Evaluator) { e.docs = src }
}

func NewEvaluator(countries rules.CountryLookup, config Config, opts ...Option) *Evaluator {
	e := &Evaluator{
		countries: countries,
		config:    config.withDefaults(),
		docs:      candidateDocuments{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now exposes the evaluator clock so callers share one notion of time.
func (e *Evaluator) Now() time.Time {
	return e.now()
}

func (e *Evaluator) Config() Config {
	return e.config
}

// Rule returns the country rule applied to c.
func (e *Evaluator) Rule(c *models.Candidate) rules.CountryRule {
	return e.countries.Lookup(c.TargetCountry)
}

// Evaluate scores c against its destination's rules. It does not mutate c.
func (e *Evaluator) Evaluate(c *models.Candidate) Report {
	now := e.now()
	rule := e.Rule(c)

	var results []RuleResult
	results = append(results, e.checkPassport(c, rule, now))
	results = append(results, e.checkPCC(c, rule, now))
	results = append(results, e.checkMedical(c, rule, now))
	results = append(results, e.checkAge(c, rule, now))
	results = append(results, e.checkDocuments(c, rule)...)
	results = append(results, e.checkFlags(c)...)

	return buildReport(c.ID, rule.Country, results, now)
}

// PassportWarningDays is the EXPIRING window for a rule: the configured
// warning days, widened by the country's minimum validity.
func (e *Evaluator) PassportWarningDays(rule rules.CountryRule) int {
	days := e.config.PassportWarningDays
	if v := rule.MinPassportValidityMonths * 30; v > days {
		days = v
	}
	return days
}

// PassportStatus is the derived passport status for c as of now.
func (e *Evaluator) PassportStatus(c *models.Candidate) DocumentValidity {
	return PassportStatusAt(c.PassportData, e.now(), e.PassportWarningDays(e.Rule(c)))
}

// PCCStatus is the derived police clearance status for c as of now.
func (e *Evaluator) PCCStatus(c *models.Candidate) DocumentValidity {
	maxAge := e.pccMaxAge(e.Rule(c))
	return PCCStatusAt(c.PCCData, e.now(), maxAge, e.pccWarning(maxAge))
}

func (e *Evaluator) pccMaxAge(rule rules.CountryRule) int {
	if rule.PCCValidityDays > 0 {
		return rule.PCCValidityDays
	}
	return e.config.PCCMaxAgeDays
}

func (e *Evaluator) pccWarning(maxAge int) int {
	if e.config.PCCWarningDays < maxAge {
		return e.config.PCCWarningDays
	}
	return maxAge * 5 / 6
}

var (
	passportBlocks = []models.Stage{models.StageEmbassyApplied, models.StageVisaReceived, models.StageDeparted}
	expiredBlocks  = []models.Stage{models.StageEmbassyApplied, models.StageVisaReceived, models.StageSLBFERegistration, models.StageDeparted}
	pccBlocks      = []models.Stage{models.StageEmbassyApplied, models.StageVisaReceived, models.StageSLBFERegistration}
	medicalBlocks  = []models.Stage{models.StageEmbassyApplied, models.StageVisaReceived, models.StageSLBFERegistration, models.StageTicketIssued, models.StageDeparted}
	ageBlocks      = []models.Stage{models.StageRegistered, models.StageVerified, models.StageApplied}
	dobBlocks      = []models.Stage{models.StageVerified, models.StageApplied}
)

func (e *Evaluator) checkPassport(c *models.Candidate, rule rules.CountryRule, now time.Time) RuleResult {
	res := RuleResult{Domain: DomainPassport, RuleID: "passport-validity"}
	warningDays := e.PassportWarningDays(rule)

	switch PassportStatusAt(c.PassportData, now, warningDays) {
	case StatusMissing:
		res.Issue = &Issue{
			ID:             "passport-missing",
			Severity:       models.SeverityCritical,
			Message:        "Passport details are missing",
			Remedy:         "Record the passport number and expiry date",
			BlockingStages: passportBlocks,
		}
	case StatusInvalid:
		res.Issue = &Issue{
			ID:             "passport-invalid",
			Severity:       models.SeverityCritical,
			Message:        "Passport dates are invalid",
			Remedy:         "Correct the passport issue and expiry dates",
			BlockingStages: expiredBlocks,
		}
	case StatusExpired:
		res.Issue = &Issue{
			ID:             "passport-expired",
			Severity:       models.SeverityCritical,
			Message:        fmt.Sprintf("Passport expired on %s", c.PassportData.ExpiryDate.Format("2006-01-02")),
			Remedy:         "Renew the passport before continuing",
			BlockingStages: expiredBlocks,
		}
	case StatusExpiring:
		days, _ := PassportDaysRemaining(c.PassportData, now)
		res.Passed = true
		res.ScoreImpact = maxScore / 2
		res.Issue = &Issue{
			ID:       "passport-expiring",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("Passport expires in %d days (minimum %d required)", days, warningDays),
			Remedy:   "Start passport renewal",
		}
	default:
		res.Passed = true
		res.ScoreImpact = maxScore
	}
	return res
}

func (e *Evaluator) checkPCC(c *models.Candidate, rule rules.CountryRule, now time.Time) RuleResult {
	res := RuleResult{Domain: DomainPCC, RuleID: "pcc-validity"}
	if !rule.PCCRequired {
		res.Passed = true
		res.ScoreImpact = maxScore
		return res
	}

	maxAge := e.pccMaxAge(rule)
	switch PCCStatusAt(c.PCCData, now, maxAge, e.pccWarning(maxAge)) {
	case StatusMissing:
		res.Issue = &Issue{
			ID:             "pcc-missing",
			Severity:       models.SeverityCritical,
			Message:        "Police clearance certificate is missing",
			Remedy:         "Obtain a police clearance certificate",
			BlockingStages: pccBlocks,
		}
	case StatusInvalid:
		res.Issue = &Issue{
			ID:             "pcc-invalid",
			Severity:       models.SeverityCritical,
			Message:        "Police clearance issue date is in the future",
			Remedy:         "Correct the police clearance issue date",
			BlockingStages: pccBlocks,
		}
	case StatusExpired:
		res.Issue = &Issue{
			ID:             "pcc-expired",
			Severity:       models.SeverityCritical,
			Message:        fmt.Sprintf("Police clearance is %d days old (maximum %d)", daysBetween(*c.PCCData.IssueDate, now), maxAge),
			Remedy:         "Apply for a new police clearance certificate",
			BlockingStages: pccBlocks,
		}
	case StatusExpiring:
		res.Passed = true
		res.ScoreImpact = maxScore / 2
		res.Issue = &Issue{
			ID:       "pcc-expiring",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("Police clearance expires in %d days", maxAge-daysBetween(*c.PCCData.IssueDate, now)),
			Remedy:   "Plan a police clearance renewal",
		}
	default:
		res.Passed = true
		res.ScoreImpact = maxScore
	}
	return res
}

func (e *Evaluator) checkMedical(c *models.Candidate, rule rules.CountryRule, now time.Time) RuleResult {
	res := RuleResult{Domain: DomainMedical, RuleID: "medical-clearance"}

	status := models.MedicalNotStarted
	var scheduled *time.Time
	if c.MedicalData != nil {
		if c.MedicalData.Status != "" {
			status = c.MedicalData.Status
		}
		scheduled = c.MedicalData.ScheduledDate
	}

	switch status {
	case models.MedicalFailed:
		res.Issue = &Issue{
			ID:             "medical-failed",
			Severity:       models.SeverityCritical,
			Message:        "Candidate failed the medical examination",
			Remedy:         "Review the medical report before proceeding",
			BlockingStages: medicalBlocks,
		}
	case models.MedicalCompleted:
		res.Passed = true
		res.ScoreImpact = maxScore
	case models.MedicalScheduled:
		if scheduled != nil && daysBetween(*scheduled, now) > 0 {
			res.ScoreImpact = 20
			res.Issue = &Issue{
				ID:       "medical-overdue",
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("Medical was scheduled for %s but has no result", scheduled.Format("2006-01-02")),
				Remedy:   "Follow up with the medical centre",
			}
		} else {
			res.Passed = true
			res.ScoreImpact = 75
		}
	default:
		if !rule.MedicalRequired {
			res.Passed = true
			res.ScoreImpact = maxScore
			break
		}
		res.ScoreImpact = maxScore / 2
		res.Issue = &Issue{
			ID:             "medical-not-started",
			Severity:       models.SeverityWarning,
			Message:        "Medical examination has not been scheduled",
			Remedy:         "Schedule a medical examination",
			BlockingStages: []models.Stage{models.StageVisaReceived},
		}
	}
	return res
}

func (e *Evaluator) checkAge(c *models.Candidate, rule rules.CountryRule, now time.Time) RuleResult {
	res := RuleResult{Domain: DomainAge, RuleID: "age-eligibility"}
	if c.DateOfBirth == nil {
		res.Issue = &Issue{
			ID:             "age-missing-dob",
			Severity:       models.SeverityCritical,
			Message:        "Date of birth is missing, age cannot be verified",
			Remedy:         "Record the candidate's date of birth",
			BlockingStages: dobBlocks,
		}
		return res
	}

	age := AgeAt(*c.DateOfBirth, now)
	limits := rule.AgeLimitsFor(c.JobRole)
	switch {
	case age < limits.Min:
		res.Issue = &Issue{
			ID:             "age-too-young",
			Severity:       models.SeverityCritical,
			Message:        fmt.Sprintf("Candidate is too young: %d (minimum %d for %s)", age, limits.Min, rule.Country),
			Remedy:         "Candidate is not eligible for this destination",
			BlockingStages: ageBlocks,
		}
	case age > limits.Max:
		res.Issue = &Issue{
			ID:             "age-too-old",
			Severity:       models.SeverityCritical,
			Message:        fmt.Sprintf("Candidate is too old: %d (maximum %d for %s)", age, limits.Max, rule.Country),
			Remedy:         "Candidate is not eligible for this destination",
			BlockingStages: ageBlocks,
		}
	default:
		res.Passed = true
		res.ScoreImpact = maxScore
	}
	return res
}

func (e *Evaluator) checkDocuments(c *models.Candidate, rule rules.CountryRule) []RuleResult {
	docs := e.docs.Documents(c)
	latest := make(map[models.DocumentType]models.CandidateDocument, len(docs))
	for _, d := range docs {
		latest[d.Type] = d
	}

	results := make([]RuleResult, 0, len(rule.MandatoryDocuments))
	for _, t := range rule.MandatoryDocuments {
		res := RuleResult{Domain: DomainDocuments, RuleID: "document-" + slug(string(t))}
		d, ok := latest[t]
		switch {
		case !ok || !d.Uploaded():
			res.Issue = &Issue{
				ID:             "document-missing-" + slug(string(t)),
				Severity:       models.SeverityCritical,
				Message:        fmt.Sprintf("%s not uploaded", t),
				Remedy:         fmt.Sprintf("Upload the candidate's %s", t),
				BlockingStages: models.StagesAfter(models.StageRegistered),
			}
		case d.Status != models.DocStatusApproved:
			res.ScoreImpact = maxScore / 2
			res.Issue = &Issue{
				ID:             "document-unapproved-" + slug(string(t)),
				Severity:       models.SeverityWarning,
				Message:        fmt.Sprintf("%s is %s", t, strings.ToLower(string(d.Status))),
				Remedy:         fmt.Sprintf("Review and approve the %s", t),
				BlockingStages: []models.Stage{models.StageVerified},
			}
		default:
			res.Passed = true
			res.ScoreImpact = maxScore
		}
		results = append(results, res)
	}
	return results
}

func (e *Evaluator) checkFlags(c *models.Candidate) []RuleResult {
	var results []RuleResult
	for _, f := range c.ComplianceFlags {
		if f.IsResolved {
			continue
		}
		res := RuleResult{Domain: DomainFlags, RuleID: "flag-" + f.ID}
		if f.Severity == models.SeverityCritical {
			res.Issue = &Issue{
				ID:             "flag-" + f.ID,
				Severity:       models.SeverityCritical,
				Message:        "Critical compliance flag: " + f.Reason,
				Remedy:         "Resolve the flag before any stage change",
				BlockingStages: models.AllStages(),
			}
		} else {
			res.ScoreImpact = maxScore / 2
			res.Issue = &Issue{
				ID:       "flag-" + f.ID,
				Severity: models.SeverityWarning,
				Message:  "Compliance warning: " + f.Reason,
				Remedy:   "Review and resolve the flag",
			}
		}
		results = append(results, res)
	}
	if len(results) == 0 {
		results = append(results, RuleResult{Domain: DomainFlags, RuleID: "flags-clear", Passed: true, ScoreImpact: maxScore})
	}
	return results
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
