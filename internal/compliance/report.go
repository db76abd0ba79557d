// internal/compliance/report.go
package compliance

import (
	"math"
	"time"

	"recruitment-workers/internal/models"
)

// Domain groups rule results for scoring.
type Domain string

const (
	DomainPassport  Domain = "Passport"
	DomainPCC       Domain = "PCC"
	DomainMedical   Domain = "Medical"
	DomainAge       Domain = "Age"
	DomainDocuments Domain = "Documents"
	DomainFlags     Domain = "Flags"
)

const maxScore = 100

// Issue is a finding attached to a rule result. BlockingStages lists the
// target stages the workflow engine refuses while the issue is open.
type Issue struct {
	ID             string          `json:"id"`
	Severity       models.Severity `json:"severity"`
	Message        string          `json:"message"`
	Remedy         string          `json:"remedy,omitempty"`
	BlockingStages []models.Stage  `json:"blockingStages,omitempty"`
}

// Blocks reports whether the issue blocks a transition into stage.
func (i Issue) Blocks(stage models.Stage) bool {
	for _, s := range i.BlockingStages {
		if s == stage {
			return true
		}
	}
	return false
}

type RuleResult struct {
	Domain      Domain `json:"domain"`
	RuleID      string `json:"ruleId"`
	Passed      bool   `json:"passed"`
	ScoreImpact int    `json:"scoreImpact"`
	Issue       *Issue `json:"issue,omitempty"`
}

type DomainScore struct {
	Score    int `json:"score"`
	MaxScore int `json:"maxScore"`
}

// Report is the scored, itemized outcome of one evaluation.
type Report struct {
	CandidateID         string                 `json:"candidateId"`
	Country             string                 `json:"country"`
	OverallScore        int                    `json:"overallScore"`
	DomainBreakdown     map[Domain]DomainScore `json:"domainBreakdown"`
	CriticalIssuesCount int                    `json:"criticalIssuesCount"`
	WarningIssuesCount  int                    `json:"warningIssuesCount"`
	Results             []RuleResult           `json:"results"`
	IsProcessable       bool                   `json:"isProcessable"`
	EvaluatedAt         time.Time              `json:"evaluatedAt"`
}

// Issues returns every issue in result order.
func (r Report) Issues() []Issue {
	var out []Issue
	for _, res := range r.Results {
		if res.Issue != nil {
			out = append(out, *res.Issue)
		}
	}
	return out
}

// BlockingIssues returns issues that block stage, skipping the given domains.
func (r Report) BlockingIssues(stage models.Stage, skip ...Domain) []Issue {
	var out []Issue
outer:
	for _, res := range r.Results {
		if res.Issue == nil || !res.Issue.Blocks(stage) {
			continue
		}
		for _, d := range skip {
			if res.Domain == d {
				continue outer
			}
		}
		out = append(out, *res.Issue)
	}
	return out
}

func buildReport(candidateID, country string, results []RuleResult, at time.Time) Report {
	report := Report{
		CandidateID:     candidateID,
		Country:         country,
		DomainBreakdown: make(map[Domain]DomainScore),
		Results:         results,
		IsProcessable:   true,
		EvaluatedAt:     at,
	}

	sum := 0
	for _, res := range results {
		sum += res.ScoreImpact

		ds := report.DomainBreakdown[res.Domain]
		ds.Score += res.ScoreImpact
		ds.MaxScore += maxScore
		report.DomainBreakdown[res.Domain] = ds

		if res.Issue == nil {
			continue
		}
		switch res.Issue.Severity {
		case models.SeverityCritical:
			report.CriticalIssuesCount++
			report.IsProcessable = false
		case models.SeverityWarning:
			report.WarningIssuesCount++
		}
	}

	if len(results) > 0 {
		report.OverallScore = int(math.Round(float64(sum) * 100 / float64(maxScore*len(results))))
	}
	return report
}
