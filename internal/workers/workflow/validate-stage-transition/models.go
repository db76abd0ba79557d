// internal/workers/workflow/validate-stage-transition/models.go
package validatestagetransition

type Input struct {
	CandidateID string `json:"candidateId"`
	TargetStage string `json:"targetStage"`
}

// Output mirrors workflow.ValidationResult plus the stages involved so the
// process can route on them.
type Output struct {
	Allowed      bool     `json:"allowed"`
	Reason       string   `json:"reason,omitempty"`
	Blockers     []string `json:"blockers"`
	CurrentStage string   `json:"currentStage"`
	TargetStage  string   `json:"targetStage"`
}
