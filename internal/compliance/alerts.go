// internal/compliance/alerts.go
package compliance

import (
	"fmt"
	"time"

	"recruitment-workers/internal/models"
)

// ComplianceAlert is one notification per open issue. ID is stable for a
// given (issue, candidate) pair so repeated evaluations can be deduplicated.
type ComplianceAlert struct {
	ID            string          `json:"id"`
	IssueID       string          `json:"issueId"`
	CandidateID   string          `json:"candidateId"`
	CandidateName string          `json:"candidateName,omitempty"`
	Domain        Domain          `json:"domain"`
	Severity      models.Severity `json:"severity"`
	Title         string          `json:"title"`
	Message       string          `json:"message"`
	Remedy        string          `json:"remedy,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Link          string          `json:"link,omitempty"`
}

func AlertKey(issueID, candidateID string) string {
	return issueID + ":" + candidateID
}

// GenerateAlerts emits an alert for each CRITICAL or WARNING issue in report.
func GenerateAlerts(c *models.Candidate, report Report) []ComplianceAlert {
	var alerts []ComplianceAlert
	for _, res := range report.Results {
		issue := res.Issue
		if issue == nil {
			continue
		}
		if issue.Severity != models.SeverityCritical && issue.Severity != models.SeverityWarning {
			continue
		}
		label := "Compliance warning"
		if issue.Severity == models.SeverityCritical {
			label = "Critical compliance issue"
		}
		alerts = append(alerts, ComplianceAlert{
			ID:            AlertKey(issue.ID, c.ID),
			IssueID:       issue.ID,
			CandidateID:   c.ID,
			CandidateName: c.Name,
			Domain:        res.Domain,
			Severity:      issue.Severity,
			Title:         fmt.Sprintf("%s: %s", label, res.Domain),
			Message:       fmt.Sprintf("%s: %s", c.Name, issue.Message),
			Remedy:        issue.Remedy,
			Timestamp:     report.EvaluatedAt,
			Link:          "/candidates/" + c.ID,
		})
	}
	return alerts
}
