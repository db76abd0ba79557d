// internal/common/http/server.go
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"recruitment-workers/internal/common/errors"
)

// NewServer builds the ops HTTP server.
func NewServer(port int, readTimeout time.Duration, handler http.Handler) *http.Server {
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      2 * readTimeout,
	}
}

type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError classifies err and writes it with the matching status.
func WriteError(w http.ResponseWriter, err error) {
	std := errors.Classify(err)
	WriteJSON(w, StatusFor(std.Code), ErrorBody{
		Error:   string(std.Code),
		Message: std.Message,
		Details: std.Details,
	})
}

func StatusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidStage,
		errors.ErrCodeMalformedCandidate,
		errors.ErrCodeReasonRequired,
		errors.ErrCodeInputValidationFailed:
		return http.StatusBadRequest
	case errors.ErrCodeCandidateNotFound:
		return http.StatusNotFound
	case errors.ErrCodeVersionConflict, errors.ErrCodeCandidateLocked:
		return http.StatusConflict
	case errors.ErrCodeQueryTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeDatabaseConnectionFailed, errors.ErrCodeBrokerUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
