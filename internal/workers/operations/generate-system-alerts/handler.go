// internal/workers/operations/generate-system-alerts/handler.go
package generatesystemalerts

import (
	"context"

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
	TaskType = "generate-system-alerts"
)

type CandidateLister interface {
	List(ctx context.Context, filter database.ListFilter) ([]*models.Candidate, error)
}

type Deduplicator interface {
	MarkIfNew(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type Notifier interface {
	Enabled() bool
	SendSystemAlert(ctx context.Context, alert tasks.SystemAlert) error
}

type Handler struct {
	config    *Config
	store     CandidateLister
	generator *tasks.Generator
	dedup     Deduplicator
	notifier  Notifier
	runtime   camunda.Runtime
	logger    logger.Logger
}

func NewHandler(config *Config, store CandidateLister, generator *tasks.Generator, dedup Deduplicator, notifier Notifier, runtime camunda.Runtime) *Handler {
	return &Handler{
		config:    config,
		store:     store,
		generator: generator,
		dedup:     dedup,
		notifier:  notifier,
		runtime:   runtime,
		logger:    runtime.Logger,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Process(client, job, h.runtime, h.Execute)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	candidates, err := h.store.List(ctx, database.ListFilter{Limit: h.config.MaxCandidates})
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list-candidates", err)
	}

	alerts, err := h.generator.GenerateAlerts(candidates)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []tasks.SystemAlert{}
	}
	for _, a := range alerts {
		metrics.SystemAlerts.WithLabelValues(string(a.Category)).Inc()
	}

	dispatched := 0
	if input.Notify {
		dispatched, err = h.dispatch(ctx, alerts)
		if err != nil {
			return nil, err
		}
	}

	h.logger.Info("system alerts generated", map[string]interface{}{
		"candidates": len(candidates),
		"alerts":     len(alerts),
		"dispatched": dispatched,
	})
	return &Output{Alerts: alerts, Dispatched: dispatched}, nil
}

// dedupKey suppresses a category for the rest of the day once sent.
func (h *Handler) dedupKey(a tasks.SystemAlert) string {
	return h.config.DedupPrefix + string(a.Category) + ":" + h.generator.Now().UTC().Format("2006-01-02")
}

func (h *Handler) dispatch(ctx context.Context, alerts []tasks.SystemAlert) (int, error) {
	if h.notifier == nil || !h.notifier.Enabled() {
		return 0, nil
	}
	sent := 0
	for _, alert := range alerts {
		key := h.dedupKey(alert)
		if h.dedup != nil {
			fresh, err := h.dedup.MarkIfNew(ctx, key)
			if err != nil {
				return sent, err
			}
			if !fresh {
				continue
			}
		}
		if err := h.notifier.SendSystemAlert(ctx, alert); err != nil {
			if h.dedup != nil {
				if ferr := h.dedup.Forget(ctx, key); ferr != nil {
					h.logger.Warn("failed to release alert key", map[string]interface{}{"key": key, "error": ferr})
				}
			}
			return sent, err
		}
		sent++
	}
	return sent, nil
}
