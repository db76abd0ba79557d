// internal/workers/operations/generate-work-queue/handler.go
package generateworkqueue

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruitment-workers/internal/common/camunda"
	"recruitment-workers/internal/common/database"
	"recruitment-workers/internal/common/errors"
	"recruitment-workers/internal/common/logger"
	"recruitment-workers/internal/common/metrics"
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/tasks"
)

const (
	TaskType = "generate-work-queue"
)

type CandidateLister interface {
	List(ctx context.Context, filter database.ListFilter) ([]*models.Candidate, error)
}

// Publisher replaces the searchable copy of the queue.
type Publisher interface {
	Replace(ctx context.Context, queue []tasks.Task, generatedAt time.Time) (int, error)
}

type Handler struct {
	config    *Config
	store     CandidateLister
	generator *tasks.Generator
	publisher Publisher
	runtime   camunda.Runtime
	logger    logger.Logger
}

// NewHandler accepts a nil publisher; the queue is then only returned.
func NewHandler(config *Config, store CandidateLister, generator *tasks.Generator, publisher Publisher, runtime camunda.Runtime) *Handler {
	return &Handler{
		config:    config,
		store:     store,
		generator: generator,
		publisher: publisher,
		runtime:   runtime,
		logger:    runtime.Logger,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Process(client, job, h.runtime, h.Execute)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	filter := database.ListFilter{Limit: input.Limit}
	if filter.Limit <= 0 {
		filter.Limit = h.config.MaxCandidates
	}
	for _, name := range input.Stages {
		stage, err := models.ParseStage(name)
		if err != nil {
			return nil, err
		}
		filter.Stages = append(filter.Stages, stage)
	}

	candidates, err := h.store.List(ctx, filter)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list-candidates", err)
	}

	generatedAt := h.generator.Now()
	queue, err := h.generator.GenerateWorkQueue(ctx, candidates)
	if err != nil {
		return nil, err
	}
	if queue == nil {
		queue = []tasks.Task{}
	}

	counts := make(map[string]int, 4)
	for _, t := range queue {
		counts[string(t.Priority)]++
	}
	for priority, n := range counts {
		metrics.WorkQueueTasksGenerated.WithLabelValues(priority).Add(float64(n))
	}

	indexed := 0
	if h.publisher != nil {
		indexed, err = h.publisher.Replace(ctx, queue, generatedAt)
		if err != nil {
			return nil, errors.NewSearchIndexFailedError("work-queue", err)
		}
		if indexed < len(queue) {
			h.logger.Warn("work queue partially indexed", map[string]interface{}{
				"tasks":   len(queue),
				"indexed": indexed,
			})
		}
	}

	h.logger.Info("work queue generated", map[string]interface{}{
		"candidates": len(candidates),
		"tasks":      len(queue),
		"indexed":    indexed,
		"critical":   counts[string(tasks.PriorityCritical)],
	})

	return &Output{Tasks: queue, Total: len(queue), Indexed: indexed, Counts: counts}, nil
}
