// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler turns worker errors into Zeebe fail or throw-error commands.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError fails the job with a retry for technical errors and throws
// a BPMN error for input errors or once retries are exhausted.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) *BPMNError {
	stdErr := Classify(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	remaining := RemainingRetries(stdErr, job.Retries)
	h.logError(job, stdErr, bpmnErr, remaining)

	if remaining > 0 {
		h.failJobWithRetries(ctx, client, job, bpmnErr, remaining)
	} else {
		h.throwBPMNError(ctx, client, job, bpmnErr)
	}
	return bpmnErr
}

// RemainingRetries is the retry count to report back to the broker: one less
// than the job has left, capped by the code's retry budget. Zero means throw.
func RemainingRetries(stdErr *StandardError, jobRetries int32) int {
	if !stdErr.Retryable {
		return 0
	}
	budget := GetRetryCount(stdErr.Code)
	left := int(jobRetries) - 1
	if left > budget {
		left = budget
	}
	if left < 0 {
		return 0
	}
	return left
}

func (h *ErrorHandler) failJobWithRetries(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, retries int) {
	varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables())

	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(int32(retries)).
		ErrorMessage(bpmnErr.Message)

	if err == nil {
		if withVars, verr := cmd.VariablesFromString(string(varsJSON)); verr == nil {
			_, err = withVars.Send(ctx)
			h.logSendError("fail", job, err)
			return
		}
	}
	_, err = cmd.Send(ctx)
	h.logSendError("fail", job, err)
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables())

	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if err == nil {
		if withVars, verr := cmd.VariablesFromString(string(varsJSON)); verr == nil {
			_, err = withVars.Send(ctx)
			h.logSendError("throw-error", job, err)
			return
		}
	}
	_, err = cmd.Send(ctx)
	h.logSendError("throw-error", job, err)
}

func (h *ErrorHandler) logSendError(command string, job entities.Job, err error) {
	if err == nil {
		return
	}
	h.logger.Error("Failed to send job command", map[string]interface{}{
		"command": command,
		"jobKey":  job.Key,
		"jobType": job.Type,
		"error":   err.Error(),
	})
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError, retries int) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    bpmnErr.Code,
		"message":          bpmnErr.Message,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"retries":          retries,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
