// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"recruitment-workers/internal/common/aws"
	"recruitment-workers/internal/common/database"
	"recruitment-workers/internal/common/validation"
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/workflow"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Input errors. The job input cannot be processed as given.
const (
	ErrCodeInvalidStage          ErrorCode = "INVALID_STAGE"
	ErrCodeMalformedCandidate    ErrorCode = "MALFORMED_CANDIDATE"
	ErrCodeCandidateNotFound     ErrorCode = "CANDIDATE_NOT_FOUND"
	ErrCodeReasonRequired        ErrorCode = "REASON_REQUIRED"
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"
)

// Technical errors. Safe to retry.
const (
	ErrCodeVersionConflict          ErrorCode = "VERSION_CONFLICT"
	ErrCodeCandidateLocked          ErrorCode = "CANDIDATE_LOCKED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeSearchIndexFailed        ErrorCode = "SEARCH_INDEX_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeBrokerUnavailable        ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewInvalidStageError(err error) *StandardError {
	return newError(ErrCodeInvalidStage, "Unknown recruitment stage", err, false)
}

func NewMalformedCandidateError(err error) *StandardError {
	return newError(ErrCodeMalformedCandidate, "Candidate record is malformed", err, false)
}

func NewCandidateNotFoundError(candidateID string) *StandardError {
	e := newError(ErrCodeCandidateNotFound, "Candidate not found", database.ErrCandidateNotFound, false)
	e.Details = fmt.Sprintf("candidateId: %s", candidateID)
	e.Metadata = map[string]interface{}{"candidateId": candidateID}
	return e
}

func NewReasonRequiredError(err error) *StandardError {
	return newError(ErrCodeReasonRequired, "A reason is required for this override", err, false)
}

func NewInputValidationFailedError(details string) *StandardError {
	e := newError(ErrCodeInputValidationFailed, "Job input failed validation", nil, false)
	e.Details = details
	return e
}

func NewVersionConflictError(err error) *StandardError {
	return newError(ErrCodeVersionConflict, "Candidate was modified concurrently", err, true)
}

func NewCandidateLockedError(err error) *StandardError {
	return newError(ErrCodeCandidateLocked, "Candidate is locked by another operation", err, true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err, true)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	e := newError(ErrCodeQueryExecutionFailed, "Database query execution error", err, true)
	e.Details = fmt.Sprintf("queryType: %s, error: %v", queryType, err)
	return e
}

func NewQueryTimeoutError(queryType string) *StandardError {
	e := newError(ErrCodeQueryTimeout, "Database query timeout", context.DeadlineExceeded, true)
	e.Details = fmt.Sprintf("queryType: %s", queryType)
	return e
}

func NewSearchIndexFailedError(index string, err error) *StandardError {
	e := newError(ErrCodeSearchIndexFailed, "Search indexing failed", err, true)
	e.Details = fmt.Sprintf("index: %s, error: %v", index, err)
	return e
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	e := newError(ErrCodeNotificationSendFailed, "Notification delivery failed", err, true)
	e.Details = fmt.Sprintf("channel: %s, error: %v", channel, err)
	return e
}

func NewBrokerUnavailableError(err error) *StandardError {
	return newError(ErrCodeBrokerUnavailable, "Zeebe broker unavailable", err, true)
}

// ==========================
// 4. Classification
// ==========================

// Classify maps any error returned by the engine, the repositories or the
// notifiers onto a StandardError. Unknown errors become INTERNAL_ERROR.
func Classify(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	switch {
	case stderrors.Is(err, models.ErrInvalidStage):
		return NewInvalidStageError(err)
	case stderrors.Is(err, models.ErrMalformedCandidate):
		return NewMalformedCandidateError(err)
	case stderrors.Is(err, workflow.ErrReasonRequired):
		return NewReasonRequiredError(err)
	case stderrors.Is(err, database.ErrCandidateNotFound):
		return newError(ErrCodeCandidateNotFound, "Candidate not found", err, false)
	case stderrors.Is(err, database.ErrVersionConflict):
		return NewVersionConflictError(err)
	case stderrors.Is(err, database.ErrCandidateLocked):
		return NewCandidateLockedError(err)
	case stderrors.Is(err, validation.ErrInvalidInput):
		return newError(ErrCodeInputValidationFailed, "Job input validation failed", err, false)
	case stderrors.Is(err, aws.ErrNotificationSendFailed):
		return newError(ErrCodeNotificationSendFailed, "Notification delivery failed", err, true)
	case stderrors.Is(err, context.DeadlineExceeded):
		return newError(ErrCodeQueryTimeout, "Operation timed out", err, true)
	}
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidStage:             "INVALID_STAGE",
	ErrCodeMalformedCandidate:       "MALFORMED_CANDIDATE",
	ErrCodeCandidateNotFound:        "CANDIDATE_NOT_FOUND",
	ErrCodeReasonRequired:           "REASON_REQUIRED",
	ErrCodeInputValidationFailed:    "INPUT_VALIDATION_FAILED",
	ErrCodeVersionConflict:          "VERSION_CONFLICT",
	ErrCodeCandidateLocked:          "CANDIDATE_LOCKED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeSearchIndexFailed:        "SEARCH_INDEX_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeBrokerUnavailable:        "BROKER_UNAVAILABLE",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeBrokerUnavailable,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeVersionConflict,
		ErrCodeCandidateLocked,
		ErrCodeQueryTimeout:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "STAGE") || strings.Contains(codeStr, "REASON"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "CANDIDATE"):
		return "CANDIDATE"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "VERSION"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "BROKER"):
		return "BROKER"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
