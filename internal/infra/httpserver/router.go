package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appai "github.com/bryanwahyu/bounty-platform/internal/application/ai"
	appjobs "github.com/bryanwahyu/bounty-platform/internal/application/jobs"
	domai "github.com/bryanwahyu/bounty-platform/internal/domain/ai"
	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
	"github.com/bryanwahyu/bounty-platform/internal/middleware"
)

// Config carries the edge concerns the router wires in front of the services.
type Config struct {
	APIKey      string
	Tokens      map[string]string
	CORSOrigins []string
	Health      map[string]middleware.HealthChecker
	RateLimit   int // requests per second per caller, 0 disables
}

type Router struct {
	jobsSvc *appjobs.Service
	aiSvc   *appai.Service
}

func NewRouter(jobsSvc *appjobs.Service, aiSvc *appai.Service, cfg Config) http.Handler {
	r := &Router{jobsSvc: jobsSvc, aiSvc: aiSvc}
	mux := chi.NewRouter()

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	if cfg.RateLimit > 0 {
		mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit*2, cfg.RateLimit))
	}

	mux.Get("/health", middleware.HealthHandler(cfg.Health))
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler())

	mux.Route("/v1", func(rt chi.Router) {
		// Ownership is opt-in: with no tokens configured every caller is
		// anonymous and every job is visible.
		if len(cfg.Tokens) > 0 {
			rt.Use(middleware.BearerAuth(cfg.Tokens))
		}

		rt.Group(func(g chi.Router) {
			g.Use(middleware.SharedKeyAuth(cfg.APIKey))
			g.Post("/jobs", r.wrap(r.handleCreateJob))
		})
		rt.Get("/jobs", r.wrap(r.handleListJobs))
		rt.Get("/jobs/{id}", r.wrap(r.handleGetJob))
		rt.Get("/jobs/{id}/history", r.wrap(r.handleJobHistory))
		rt.Post("/ai/analyze", r.wrap(r.handleAIAnalyze))
		rt.Get("/ai/analyze", r.wrap(r.handleAIAnalyzeList))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, domain.ErrValidation):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, domain.ErrForbidden):
				writeError(w, http.StatusForbidden, "forbidden")
			case errors.Is(err, domain.ErrNotFound), errors.Is(err, sql.ErrNoRows):
				writeError(w, http.StatusNotFound, "not found")
			case errors.Is(err, domai.ErrQuotaExceeded):
				writeError(w, http.StatusTooManyRequests, "ai quota exceeded")
			default:
				writeError(w, http.StatusInternalServerError, err.Error())
			}
		}
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}

// POST /v1/jobs
func (r *Router) handleCreateJob(w http.ResponseWriter, req *http.Request) error {
	var body domain.CreateJobRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	body.ProjectName = middleware.SanitizeString(body.ProjectName)

	// Edge hardening before the value ever reaches a tool command line.
	switch body.Kind {
	case domain.KindAttackSurface:
		if err := middleware.ValidateTargetURL(body.TargetURL); err != nil {
			return badRequest("target_url: %v", err)
		}
	case domain.KindSCA:
		if err := middleware.ValidateScanPath(body.TargetURL); err != nil {
			return badRequest("target_url: %v", err)
		}
	}

	owner := middleware.GetOwnerFromContext(req.Context())
	job, err := r.jobsSvc.Create(req.Context(), body, owner)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, job)
}

// GET /v1/jobs?status=&project_name=&skip=&limit=
func (r *Router) handleListJobs(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()

	f := domain.ListFilter{
		ProjectName: middleware.SanitizeString(q.Get("project_name")),
	}
	if s := q.Get("status"); s != "" {
		st := domain.Status(s)
		if !st.Valid() {
			return badRequest("unknown status: %s", s)
		}
		f.Status = st
	}
	skip, _ := strconv.Atoi(q.Get("skip"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	f.Skip = middleware.ValidateSkip(skip)
	f.Limit = middleware.ValidateLimit(limit)

	owner := middleware.GetOwnerFromContext(req.Context())
	list, err := r.jobsSvc.List(req.Context(), f, owner)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Job{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/jobs/{id}
func (r *Router) handleGetJob(w http.ResponseWriter, req *http.Request) error {
	id := domain.JobID(chi.URLParam(req, "id"))
	owner := middleware.GetOwnerFromContext(req.Context())

	job, err := r.jobsSvc.Get(req.Context(), id, owner)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, job)
}

// GET /v1/jobs/{id}/history?limit=
func (r *Router) handleJobHistory(w http.ResponseWriter, req *http.Request) error {
	id := domain.JobID(chi.URLParam(req, "id"))
	owner := middleware.GetOwnerFromContext(req.Context())
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	entries, err := r.jobsSvc.JobHistory(req.Context(), id, owner, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"job_id":  id,
		"history": entries,
	})
}

// POST /v1/ai/analyze
// Body: {"job_id": "<id>"}. The job must be completed; its result payload is
// what gets analyzed.
func (r *Router) handleAIAnalyze(w http.ResponseWriter, req *http.Request) error {
	if r.aiSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "ai analysis not configured")
		return nil
	}

	var body struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if body.JobID == "" {
		return badRequest("job_id is required")
	}

	owner := middleware.GetOwnerFromContext(req.Context())
	job, err := r.jobsSvc.Get(req.Context(), domain.JobID(body.JobID), owner)
	if err != nil {
		return err
	}
	if job.Status != domain.StatusCompleted || job.Result == nil {
		return badRequest("job %s has no result to analyze", body.JobID)
	}

	resultJSON, err := json.Marshal(job.Result)
	if err != nil {
		return err
	}
	a, err := r.aiSvc.AnalyzeAndStore(req.Context(), owner, body.JobID, string(resultJSON))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// GET /v1/ai/analyze?page=&page_size=
func (r *Router) handleAIAnalyzeList(w http.ResponseWriter, req *http.Request) error {
	if r.aiSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "ai analysis not configured")
		return nil
	}

	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	owner := middleware.GetOwnerFromContext(req.Context())
	list, err := r.aiSvc.ListAnalyses(req.Context(), owner, page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}
