// internal/workers/compliance/check-stage-sla/models.go
package checkstagesla

import "recruitment-workers/internal/workflow"

type Input struct {
	CandidateID string `json:"candidateId"`
}

type Output = workflow.SLAReport
