// internal/workers/workflow/validate-stage-transition/handler.go
package validatestagetransition

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruitment-workers/internal/common/camunda"
	"recruitment-workers/internal/common/logger"
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/workflow"
)

const (
	TaskType = "validate-stage-transition"
)

type CandidateReader interface {
	Get(ctx context.Context, id string) (*models.Candidate, error)
}

type Handler struct {
	config  *Config
	store   CandidateReader
	engine  *workflow.Engine
	runtime camunda.Runtime
	logger  logger.Logger
}

func NewHandler(config *Config, store CandidateReader, engine *workflow.Engine, runtime camunda.Runtime) *Handler {
	return &Handler{
		config:  config,
		store:   store,
		engine:  engine,
		runtime: runtime,
		logger:  runtime.Logger,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Process(client, job, h.runtime, h.Execute)
}

// Execute is read-only: the candidate is never modified.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	target, err := models.ParseStage(input.TargetStage)
	if err != nil {
		return nil, err
	}

	c, err := h.store.Get(ctx, input.CandidateID)
	if err != nil {
		return nil, err
	}

	result, err := h.engine.ValidateTransition(c, target)
	if err != nil {
		return nil, err
	}

	h.logger.Info("transition validated", map[string]interface{}{
		"candidateId": c.ID,
		"from":        string(c.Stage),
		"to":          string(target),
		"allowed":     result.Allowed,
		"blockers":    len(result.Blockers),
	})

	return &Output{
		Allowed:      result.Allowed,
		Reason:       result.Reason,
		Blockers:     result.Blockers,
		CurrentStage: string(c.Stage),
		TargetStage:  string(target),
	}, nil
}
