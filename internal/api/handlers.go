// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"recruitment-workers/internal/common/database"
	"recruitment-workers/internal/common/errors"
	httpx "recruitment-workers/internal/common/http"
	"recruitment-workers/internal/compliance"
	"recruitment-workers/internal/models"
)

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReady runs every check with a short deadline and reports each result.
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ready"
	if status != http.StatusOK {
		overall = "not ready"
	}
	httpx.WriteJSON(w, status, map[string]interface{}{"status": overall, "checks": results})
}

func (h *Handler) loadCandidate(w http.ResponseWriter, r *http.Request) (*models.Candidate, bool) {
	c, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, err)
		return nil, false
	}
	return c, true
}

type complianceResponse struct {
	Report compliance.Report            `json:"report"`
	Alerts []compliance.ComplianceAlert `json:"alerts"`
}

func (h *Handler) HandleCompliance(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCandidate(w, r)
	if !ok {
		return
	}
	if err := c.Validate(); err != nil {
		httpx.WriteError(w, err)
		return
	}
	report := h.engine.Evaluator().Evaluate(c)
	alerts := compliance.GenerateAlerts(c, report)
	if alerts == nil {
		alerts = []compliance.ComplianceAlert{}
	}
	httpx.WriteJSON(w, http.StatusOK, complianceResponse{Report: report, Alerts: alerts})
}

type validateRequest struct {
	TargetStage string `json:"targetStage"`
}

func (h *Handler) HandleValidateTransition(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, errors.NewInputValidationFailedError(fmt.Sprintf("decode body: %v", err)))
		return
	}
	target, err := models.ParseStage(req.TargetStage)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	c, ok := h.loadCandidate(w, r)
	if !ok {
		return
	}
	result, err := h.engine.ValidateTransition(c, target)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleSLA(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCandidate(w, r)
	if !ok {
		return
	}
	report, err := h.engine.SLAStatus(c)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

// listFilter reads ?stage=A,B (or repeated stage params) and ?limit=N.
func listFilter(r *http.Request) (database.ListFilter, error) {
	var filter database.ListFilter
	q := r.URL.Query()
	for _, raw := range q["stage"] {
		for _, name := range strings.Split(raw, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			stage, err := models.ParseStage(name)
			if err != nil {
				return filter, err
			}
			filter.Stages = append(filter.Stages, stage)
		}
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return filter, errors.NewInputValidationFailedError(fmt.Sprintf("limit must be a non-negative integer, got %q", s))
		}
		filter.Limit = n
	}
	return filter, nil
}

func (h *Handler) HandleWorkQueue(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	candidates, err := h.store.List(r.Context(), filter)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	queue, err := h.generator.GenerateWorkQueue(r.Context(), candidates)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"tasks": nonNil(queue), "total": len(queue)})
}

func (h *Handler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.store.List(r.Context(), database.ListFilter{})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	alerts, err := h.generator.GenerateAlerts(candidates)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"alerts": nonNil(alerts)})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
