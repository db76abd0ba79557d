// internal/workers/compliance/evaluate-compliance/handler.go
package evaluatecompliance

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruitment-workers/internal/common/camunda"
	"recruitment-workers/internal/common/logger"
	"recruitment-workers/internal/common/metrics"
	"recruitment-workers/internal/compliance"
	"recruitment-workers/internal/models"
)

const (
	TaskType = "evaluate-compliance"
)

type CandidateReader interface {
	Get(ctx context.Context, id string) (*models.Candidate, error)
}

type Deduplicator interface {
	MarkIfNew(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type Notifier interface {
	Enabled() bool
	SendComplianceAlert(ctx context.Context, alert compliance.ComplianceAlert) error
}

type Handler struct {
	config    *Config
	store     CandidateReader
	evaluator *compliance.Evaluator
	dedup     Deduplicator
	notifier  Notifier
	runtime   camunda.Runtime
	logger    logger.Logger
}

// NewHandler accepts a nil dedup (every alert is sent) and a nil notifier
// (nothing is sent).
func NewHandler(config *Config, store CandidateReader, evaluator *compliance.Evaluator, dedup Deduplicator, notifier Notifier, runtime camunda.Runtime) *Handler {
	return &Handler{
		config:    config,
		store:     store,
		evaluator: evaluator,
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
	c, err := h.store.Get(ctx, input.CandidateID)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	report := h.evaluator.Evaluate(c)
	alerts := compliance.GenerateAlerts(c, report)
	if alerts == nil {
		alerts = []compliance.ComplianceAlert{}
	}
	metrics.RecordEvaluation(report.IsProcessable)

	h.logger.Info("compliance evaluated", map[string]interface{}{
		"candidateId":   c.ID,
		"country":       report.Country,
		"overallScore":  report.OverallScore,
		"critical":      report.CriticalIssuesCount,
		"warnings":      report.WarningIssuesCount,
		"isProcessable": report.IsProcessable,
	})

	dispatched := 0
	if input.Notify {
		dispatched, err = h.dispatch(ctx, alerts)
		if err != nil {
			return nil, err
		}
	}

	return &Output{Report: report, Alerts: alerts, Dispatched: dispatched}, nil
}

// dispatch sends each alert not already sent within the dedup window. A
// failed send releases its key so the job retry sends it again.
func (h *Handler) dispatch(ctx context.Context, alerts []compliance.ComplianceAlert) (int, error) {
	if h.notifier == nil || !h.notifier.Enabled() {
		return 0, nil
	}
	sent := 0
	for _, alert := range alerts {
		key := h.config.DedupPrefix + alert.ID
		if h.dedup != nil {
			fresh, err := h.dedup.MarkIfNew(ctx, key)
			if err != nil {
				return sent, err
			}
			if !fresh {
				continue
			}
		}
		if err := h.notifier.SendComplianceAlert(ctx, alert); err != nil {
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
