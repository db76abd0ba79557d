// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"recruitment-workers/internal/common/config"
	"recruitment-workers/internal/common/errors"
	"recruitment-workers/internal/common/logger"
	"recruitment-workers/internal/common/metrics"
	"recruitment-workers/internal/common/observability"
	"recruitment-workers/internal/common/validation"
)

// CommandTimeout bounds each job command sent back to the gateway.
var CommandTimeout = 10 * time.Second

// Runtime is what every job handler shares: its task type, deadline,
// logger and the error, validation and telemetry plumbing.
type Runtime struct {
	TaskType  string
	Timeout   time.Duration
	Logger    logger.Logger
	Errors    *errors.ErrorHandler
	Validator *validation.SchemaValidator
	Obs       *observability.Observability
}

// NewRuntime scopes log to taskType and builds the error handler from it.
func NewRuntime(taskType string, timeout time.Duration, validator *validation.SchemaValidator, obs *observability.Observability, log logger.Logger) Runtime {
	scoped := log.WithFields(map[string]interface{}{"taskType": taskType})
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return Runtime{
		TaskType:  taskType,
		Timeout:   timeout,
		Logger:    scoped,
		Errors:    errors.NewErrorHandler(scoped),
		Validator: validator,
		Obs:       obs,
	}
}

// Process runs the standard job flow: validate and decode the variables,
// execute within the timeout, then complete the job or hand the error to
// the ErrorHandler.
func Process[I any, O any](client worker.JobClient, job entities.Job, rt Runtime, execute func(ctx context.Context, input *I) (*O, error)) {
	rt.Logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	metrics.WorkerJobsActive.WithLabelValues(rt.TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(rt.TaskType).Dec()
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), rt.Timeout)
	defer cancel()

	var done func(error)
	if rt.Obs != nil {
		ctx, done = rt.Obs.TrackJob(ctx, rt.TaskType, job.Key)
	}

	output, err := run(ctx, job, rt, execute)
	metrics.WorkerJobDuration.WithLabelValues(rt.TaskType).Observe(time.Since(start).Seconds())
	if done != nil {
		done(err)
	}

	// Commands run on their own deadline so a timed-out job is still failed.
	sendCtx, sendCancel := context.WithTimeout(context.WithoutCancel(ctx), CommandTimeout)
	defer sendCancel()

	if err != nil {
		bpmnErr := rt.Errors.HandleJobError(sendCtx, client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(rt.TaskType, bpmnErr.Code).Inc()
		return
	}

	if err := CompleteJob(sendCtx, client, job, output); err != nil {
		rt.Logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(rt.TaskType).Inc()
	rt.Logger.Info("job completed", map[string]interface{}{
		"jobKey":   job.Key,
		"duration": time.Since(start).String(),
	})
}

func run[I any, O any](ctx context.Context, job entities.Job, rt Runtime, execute func(ctx context.Context, input *I) (*O, error)) (*O, error) {
	if err := rt.Validator.ValidateJSON(rt.TaskType, job.Variables); err != nil {
		return nil, err
	}
	var input I
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	return execute(ctx, &input)
}

// CompleteJob sends output as the job's result variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("complete job %d: %w", job.Key, err)
	}
	return nil
}

// Pool tracks opened job workers so they can be closed together.
type Pool struct {
	mu      sync.Mutex
	client  zbc.Client
	workers map[string]worker.JobWorker
	logger  logger.Logger
}

func NewPool(client zbc.Client, log logger.Logger) *Pool {
	return &Pool{client: client, workers: make(map[string]worker.JobWorker), logger: log}
}

// Start opens a job worker for taskType unless wcfg disables it.
func (p *Pool) Start(taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) bool {
	if !wcfg.Enabled {
		p.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jw := p.client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	p.mu.Lock()
	p.workers[taskType] = jw
	p.mu.Unlock()

	p.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// TaskTypes lists running workers.
func (p *Pool) TaskTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.workers))
	for t := range p.workers {
		out = append(out, t)
	}
	return out
}

// Close stops polling and waits for in-flight jobs.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for taskType, jw := range p.workers {
		jw.Close()
		jw.AwaitClose()
		p.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
	}
	p.workers = make(map[string]worker.JobWorker)
}
