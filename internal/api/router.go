// internal/api/router.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recruitment-workers/internal/common/database"
	"recruitment-workers/internal/common/logger"
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/tasks"
	"recruitment-workers/internal/workflow"
)

// CandidateReader is the read side of the candidate store.
type CandidateReader interface {
	Get(ctx context.Context, id string) (*models.Candidate, error)
	List(ctx context.Context, filter database.ListFilter) ([]*models.Candidate, error)
}

// Check is one readiness check, keyed by dependency name.
type Check func(ctx context.Context) error

type Dependencies struct {
	Store     CandidateReader
	Engine    *workflow.Engine
	Generator *tasks.Generator
	Checks    map[string]Check
	Gatherer  prometheus.Gatherer
	Logger    logger.Logger
}

type Handler struct {
	store     CandidateReader
	engine    *workflow.Engine
	generator *tasks.Generator
	checks    map[string]Check
	logger    logger.Logger
}

// NewRouter mounts the health checks, the metrics endpoint and the read-only
// candidate API.
func NewRouter(deps Dependencies) http.Handler {
	h := &Handler{
		store:     deps.Store,
		engine:    deps.Engine,
		generator: deps.Generator,
		checks:    deps.Checks,
		logger:    deps.Logger,
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Mount("/debug", middleware.Profiler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Route("/candidates/{id}", func(r chi.Router) {
			r.Get("/compliance", h.HandleCompliance)
			r.Post("/transitions/validate", h.HandleValidateTransition)
			r.Get("/sla", h.HandleSLA)
		})
		r.Get("/work-queue", h.HandleWorkQueue)
		r.Get("/alerts", h.HandleAlerts)
	})
	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			return
		}
		h.logger.Debug("http request", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"requestId":   middleware.GetReqID(r.Context()),
		})
	})
}
