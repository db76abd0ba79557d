// internal/workers/workflow/override-stage/models.go
package overridestage

import "recruitment-workers/internal/models"

type Mode string

const (
	ModeForce    Mode = "force"
	ModeRollback Mode = "rollback"
)

type Input struct {
	CandidateID string       `json:"candidateId"`
	TargetStage string       `json:"targetStage"`
	Mode        Mode         `json:"mode"`
	Reason      string       `json:"reason"`
	Actor       models.Actor `json:"actor"`
}

func (in *Input) actor() models.Actor {
	a := in.Actor
	a.Role = a.Role.Normalize()
	return a
}

type Output struct {
	Success   bool                  `json:"success"`
	Mode      Mode                  `json:"mode"`
	Event     *models.TimelineEvent `json:"event"`
	Error     string                `json:"error,omitempty"`
	FromStage string                `json:"fromStage"`
	ToStage   string                `json:"toStage"`
	Version   int64                 `json:"version"`
}
