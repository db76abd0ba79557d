// internal/workers/workflow/perform-stage-transition/handler.go
package performstagetransition

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruitment-workers/internal/common/camunda"
	"recruitment-workers/internal/common/database"
	"recruitment-workers/internal/common/logger"
	"recruitment-workers/internal/common/metrics"
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/workflow"
)

const (
	TaskType = "perform-stage-transition"
)

type Handler struct {
	config  *Config
	mutator *database.Mutator
	engine  *workflow.Engine
	runtime camunda.Runtime
	logger  logger.Logger
}

func NewHandler(config *Config, mutator *database.Mutator, engine *workflow.Engine, runtime camunda.Runtime) *Handler {
	return &Handler{
		config:  config,
		mutator: mutator,
		engine:  engine,
		runtime: runtime,
		logger:  runtime.Logger,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Process(client, job, h.runtime, h.Execute)
}

// Execute applies a forward transition under the candidate lock. A
// rejected transition completes the job with Success=false so the process
// can branch on it; only unusable input or storage failures are errors.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	target, err := models.ParseStage(input.TargetStage)
	if err != nil {
		return nil, err
	}
	actor := input.actor()

	var result workflow.TransitionResult
	c, err := h.mutator.Mutate(ctx, input.CandidateID, func(c *models.Candidate) ([]models.TimelineEvent, error) {
		res, err := h.engine.PerformTransition(c, target, actor)
		if err != nil {
			return nil, err
		}
		result = res
		if res.Event == nil {
			return nil, nil
		}
		return []models.TimelineEvent{*res.Event}, nil
	})
	if err != nil {
		return nil, err
	}

	outcome := metrics.OutcomeApplied
	switch {
	case !result.Success:
		outcome = metrics.OutcomeRejected
	case result.Event == nil:
		outcome = metrics.OutcomeNoop
	}
	metrics.RecordTransition(string(result.FromStage), string(result.ToStage), outcome)

	h.logger.Info("stage transition", map[string]interface{}{
		"candidateId": input.CandidateID,
		"from":        string(result.FromStage),
		"to":          string(result.ToStage),
		"outcome":     outcome,
		"actor":       actor.ID,
	})

	blockers := result.Blockers
	if blockers == nil {
		blockers = []string{}
	}
	return &Output{
		Success:   result.Success,
		Event:     result.Event,
		Error:     result.Error,
		Blockers:  blockers,
		FromStage: string(result.FromStage),
		ToStage:   string(result.ToStage),
		Version:   c.Version,
	}, nil
}
