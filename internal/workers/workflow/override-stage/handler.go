// internal/workers/workflow/override-stage/handler.go
package overridestage

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruitment-workers/internal/common/camunda"
	"recruitment-workers/internal/common/database"
	"recruitment-workers/internal/common/errors"
	"recruitment-workers/internal/common/logger"
	"recruitment-workers/internal/common/metrics"
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/workflow"
)

const (
	TaskType = "override-stage"
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	target, err := models.ParseStage(input.TargetStage)
	if err != nil {
		return nil, err
	}

	var (
		apply   func(*models.Candidate, models.Stage, models.Actor, string) (workflow.TransitionResult, error)
		outcome string
	)
	switch input.Mode {
	case ModeForce:
		apply, outcome = h.engine.ForceTransition, metrics.OutcomeForced
	case ModeRollback:
		apply, outcome = h.engine.Rollback, metrics.OutcomeRollback
	default:
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("unknown override mode %q", input.Mode))
	}

	actor := input.actor()
	var result workflow.TransitionResult
	c, err := h.mutator.Mutate(ctx, input.CandidateID, func(c *models.Candidate) ([]models.TimelineEvent, error) {
		res, err := apply(c, target, actor, input.Reason)
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

	switch {
	case !result.Success:
		outcome = metrics.OutcomeRejected
		h.logger.Warn("stage override refused", map[string]interface{}{
			"candidateId": input.CandidateID,
			"mode":        string(input.Mode),
			"actor":       actor.ID,
			"role":        string(actor.Role),
			"error":       result.Error,
		})
	case result.Event == nil:
		outcome = metrics.OutcomeNoop
	default:
		h.logger.Info("stage overridden", map[string]interface{}{
			"candidateId": input.CandidateID,
			"mode":        string(input.Mode),
			"from":        string(result.FromStage),
			"to":          string(result.ToStage),
			"actor":       actor.ID,
			"reason":      input.Reason,
		})
	}
	metrics.RecordTransition(string(result.FromStage), string(result.ToStage), outcome)

	return &Output{
		Success:   result.Success,
		Mode:      input.Mode,
		Event:     result.Event,
		Error:     result.Error,
		FromStage: string(result.FromStage),
		ToStage:   string(result.ToStage),
		Version:   c.Version,
	}, nil
}
