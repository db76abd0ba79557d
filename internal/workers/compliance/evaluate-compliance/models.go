// internal/workers/compliance/evaluate-compliance/models.go
package evaluatecompliance

import "recruitment-workers/internal/compliance"

type Input struct {
	CandidateID string `json:"candidateId"`
	Notify      bool   `json:"notify"`
}

type Output struct {
	Report     compliance.Report            `json:"report"`
	Alerts     []compliance.ComplianceAlert `json:"alerts"`
	Dispatched int                          `json:"dispatched"`
}
