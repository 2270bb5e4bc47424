package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/bounty-platform/internal/application"
	appjobs "github.com/bryanwahyu/bounty-platform/internal/application/jobs"
	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
)

type memRepo struct {
	mu   sync.Mutex
	jobs map[domain.JobID]*domain.Job
}

func newMemRepo() *memRepo { return &memRepo{jobs: make(map[domain.JobID]*domain.Job)} }

func (r *memRepo) Create(_ context.Context, j *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *j
	r.jobs[j.ID] = &cp
	return nil
}

func (r *memRepo) Get(_ context.Context, id domain.JobID) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *memRepo) List(_ context.Context, f domain.ListFilter) ([]*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Job{}
	for _, j := range r.jobs {
		if f.Owner != "" && j.Owner != f.Owner {
			continue
		}
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRepo) ClaimPending(_ context.Context, id domain.JobID, startedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status != domain.StatusPending {
		return false, nil
	}
	j.Status = domain.StatusRunning
	j.StartedAt = &startedAt
	return true, nil
}

func (r *memRepo) Complete(_ context.Context, id domain.JobID, res *domain.Result, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.jobs[id]
	j.Status = domain.StatusCompleted
	j.Result = res
	j.FinishedAt = &finishedAt
	return nil
}

func (r *memRepo) Fail(_ context.Context, id domain.JobID, msg string, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.jobs[id]
	j.Status = domain.StatusFailed
	j.ErrorMessage = msg
	j.FinishedAt = &finishedAt
	return nil
}

func (r *memRepo) SetResult(_ context.Context, id domain.JobID, res *domain.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id].Result = res
	return nil
}

func (r *memRepo) ListPending(_ context.Context) ([]domain.JobID, error) { return nil, nil }

func newTestRouter(repo *memRepo, cfg Config) http.Handler {
	svc := &appjobs.Service{
		Repo:  repo,
		Clock: application.SystemClock{},
	}
	return NewRouter(svc, nil, cfg)
}

func postJSON(t *testing.T, h http.Handler, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const createBody = `{
	"job_type": "attack_surface",
	"project_name": "acme",
	"target_url": "https://app.acme.example",
	"accept_terms": true
}`

func TestCreateJobEndpoint(t *testing.T) {
	h := newTestRouter(newMemRepo(), Config{})

	rec := postJSON(t, h, "/v1/jobs", createBody, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var job domain.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, "acme", job.ProjectName)
}

func TestCreateJobValidationErrors(t *testing.T) {
	h := newTestRouter(newMemRepo(), Config{})

	t.Run("terms not accepted", func(t *testing.T) {
		body := strings.Replace(createBody, `"accept_terms": true`, `"accept_terms": false`, 1)
		rec := postJSON(t, h, "/v1/jobs", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "accept_terms")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := postJSON(t, h, "/v1/jobs", "{not json", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("internal target blocked", func(t *testing.T) {
		body := strings.Replace(createBody, "https://app.acme.example", "http://127.0.0.1:8080", 1)
		rec := postJSON(t, h, "/v1/jobs", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateJobAPIKeyGate(t *testing.T) {
	h := newTestRouter(newMemRepo(), Config{APIKey: "k1"})

	rec := postJSON(t, h, "/v1/jobs", createBody, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, h, "/v1/jobs", createBody, map[string]string{"X-API-Key": "k1"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestGetJobEndpoint(t *testing.T) {
	repo := newMemRepo()
	h := newTestRouter(repo, Config{})

	rec := postJSON(t, h, "/v1/jobs", createBody, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = get(t, h, "/v1/jobs/"+string(created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/v1/jobs/unknown-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobsEndpoint(t *testing.T) {
	repo := newMemRepo()
	h := newTestRouter(repo, Config{})

	rec := get(t, h, "/v1/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	postJSON(t, h, "/v1/jobs", createBody, nil)
	rec = get(t, h, "/v1/jobs?status=pending&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = get(t, h, "/v1/jobs?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOwnershipAcrossEndpoints(t *testing.T) {
	repo := newMemRepo()
	h := newTestRouter(repo, Config{Tokens: map[string]string{
		"tok-alice": "alice",
		"tok-bob":   "bob",
	}})

	rec := postJSON(t, h, "/v1/jobs", createBody, map[string]string{"Authorization": "Bearer tok-alice"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// no credential at all
	rec = get(t, h, "/v1/jobs/"+string(created.ID), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// wrong owner: forbidden, not 404
	rec = get(t, h, "/v1/jobs/"+string(created.ID), map[string]string{"Authorization": "Bearer tok-bob"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// bob's listing must not leak alice's job
	rec = get(t, h, "/v1/jobs", map[string]string{"Authorization": "Bearer tok-bob"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestAIEndpointsUnconfigured(t *testing.T) {
	h := newTestRouter(newMemRepo(), Config{})

	rec := postJSON(t, h, "/v1/ai/analyze", `{"job_id":"x"}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, h, "/v1/ai/analyze", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	h := newTestRouter(newMemRepo(), Config{})

	rec := get(t, h, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status["status"])

	rec = get(t, h, "/livez", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Contains(t, m, "jobs_submitted")
}
