// internal/workers/compliance/check-stage-sla/handler.go
package checkstagesla

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
	TaskType = "check-stage-sla"
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	c, err := h.store.Get(ctx, input.CandidateID)
	if err != nil {
		return nil, err
	}
	report, err := h.engine.SLAStatus(c)
	if err != nil {
		return nil, err
	}
	if report.Overdue {
		h.logger.Warn("stage overdue", map[string]interface{}{
			"candidateId": c.ID,
			"stage":       string(report.Stage),
			"daysInStage": report.DaysInStage,
			"limitDays":   report.LimitDays,
		})
	}
	return &report, nil
}
