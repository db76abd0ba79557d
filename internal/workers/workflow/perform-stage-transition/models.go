// internal/workers/workflow/perform-stage-transition/models.go
package performstagetransition

import "recruitment-workers/internal/models"

type Input struct {
	CandidateID string       `json:"candidateId"`
	TargetStage string       `json:"targetStage"`
	Actor       models.Actor `json:"actor"`
}

func (in *Input) actor() models.Actor {
	a := in.Actor
	a.Role = a.Role.Normalize()
	return a
}

type Output struct {
	Success   bool                  `json:"success"`
	Event     *models.TimelineEvent `json:"event"`
	Error     string                `json:"error,omitempty"`
	Blockers  []string              `json:"blockers"`
	FromStage string                `json:"fromStage"`
	ToStage   string                `json:"toStage"`
	Version   int64                 `json:"version"`
}
